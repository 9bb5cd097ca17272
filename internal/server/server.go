package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"careconnect/internal/bootstrap"
	"careconnect/internal/config"
	"careconnect/internal/pkg/serverutils"
	"careconnect/internal/service"
	"careconnect/pkg/ingest"
	"careconnect/pkg/store"
	"careconnect/web"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

// errorMappings assigns statuses to the domain errors handlers return.
var errorMappings = []serverutils.ErrorMapping{
	{Err: store.ErrSessionNotFound, Code: fiber.StatusNotFound},
	{Err: service.ErrUnknownModel, Code: fiber.StatusUnprocessableEntity},
	{Err: service.ErrUnknownCategory, Code: fiber.StatusUnprocessableEntity},
	{Err: service.ErrEmptyQuestion, Code: fiber.StatusUnprocessableEntity},
	{Err: ingest.ErrUnsupportedFormat, Code: fiber.StatusUnsupportedMediaType},
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, the upload limit
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept",
		AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(errorMappings...))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		if err := container.Connection.Ping(ctx); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "warehouse disconnected")
		}
		return c.JSON(serverutils.SuccessResponse("ok", fiber.Map{"warehouse": true}))
	})

	// Routes
	registerRoutes(app, container)

	// UI
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(web.Assets),
		Index: "index.html",
	}))

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.CatalogController.RegisterRoutes(api)
	c.SessionController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)

	c.ChatSocketHandler.RegisterRoutes(app)
}
