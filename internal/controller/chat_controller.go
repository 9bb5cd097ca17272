package controller

import (
	"careconnect/internal/dto"
	"careconnect/internal/pkg/serverutils"
	"careconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	DocumentURL(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat/v1/:id", c.Ask)
	r.Get("/document/v1/url", c.DocumentURL)
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), id, req.Question)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer", res))
}

// DocumentURL returns an empty url when no link could be issued.
func (c *chatController) DocumentURL(ctx *fiber.Ctx) error {
	path := ctx.Query("path")
	if path == "" {
		return fiber.NewError(fiber.StatusBadRequest, "path is required")
	}
	return ctx.JSON(serverutils.SuccessResponse("Document URL", c.service.DocumentURL(ctx.UserContext(), path)))
}
