package handlers

import (
	"errors"
	"strings"

	"expenselens/internal/dto"
	"expenselens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type QuestionHandler struct {
	qaService *service.QAService
	logger    *zap.Logger
}

func NewQuestionHandler(qaService *service.QAService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		qaService: qaService,
		logger:    logger,
	}
}

// AskQuestion runs the query pipeline for a free-text question. The
// response distinguishes a valid empty outcome (no matching data, 404)
// from a collaborator failure (502) and a reply the synthesizer could not
// use (422).
func (h *QuestionHandler) AskQuestion(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	result, err := h.qaService.AnswerQuestion(c.Context(), question)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQuery):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Failed to generate query",
			})
		case errors.Is(err, service.ErrUnsafeQuery):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Generated query was rejected",
			})
		case errors.Is(err, service.ErrNoData):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No data found for the question",
			})
		default:
			h.logger.Error("Failed to answer question", zap.String("question", question), zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to answer question",
			})
		}
	}

	return c.JSON(result)
}
