package controller

import (
	"careconnect/internal/pkg/serverutils"
	"careconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	GetModels(ctx *fiber.Ctx) error
	GetCategories(ctx *fiber.Ctx) error
	GetDocuments(ctx *fiber.Ctx) error
}

type catalogController struct {
	service service.ICatalogService
}

func NewCatalogController(service service.ICatalogService) ICatalogController {
	return &catalogController{service: service}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/catalog/v1")
	h.Get("/models", c.GetModels)
	h.Get("/categories", c.GetCategories)
	h.Get("/documents", c.GetDocuments)
}

func (c *catalogController) GetModels(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Available models", c.service.Models()))
}

func (c *catalogController) GetCategories(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Available categories", c.service.Categories(ctx.UserContext())))
}

func (c *catalogController) GetDocuments(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Available documents", c.service.Documents(ctx.UserContext())))
}
