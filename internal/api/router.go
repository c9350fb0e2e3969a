package api

import (
	"expenselens/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func SetupRouter(
	statementHandler *handlers.StatementHandler,
	questionHandler *handlers.QuestionHandler,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(logger.New())

	// API routes
	v1 := app.Group("/api/v1")

	v1.Post("/statements", statementHandler.IngestStatement)
	v1.Get("/expenses", statementHandler.ListExpenses)
	v1.Get("/expenses/count", statementHandler.CountExpenses)
	v1.Post("/questions", questionHandler.AskQuestion)

	return app
}
