package handlers

import (
	"os"
	"path/filepath"
	"strconv"

	"expenselens/internal/dto"
	"expenselens/internal/repository"
	"expenselens/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatementHandler struct {
	ingestService *service.IngestService
	repo          *repository.ExpenseRepository
	uploadDir     string
	logger        *zap.Logger
}

func NewStatementHandler(
	ingestService *service.IngestService,
	repo *repository.ExpenseRepository,
	uploadDir string,
	logger *zap.Logger,
) *StatementHandler {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &StatementHandler{
		ingestService: ingestService,
		repo:          repo,
		uploadDir:     uploadDir,
		logger:        logger,
	}
}

// IngestStatement saves the uploaded statement under a generated name and
// runs the ingestion pipeline on it. A zero-count extraction is a valid
// outcome and still returns 200; a collaborator failure returns 502.
func (h *StatementHandler) IngestStatement(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	ext := filepath.Ext(file.Filename)
	filePath := filepath.Join(h.uploadDir, uuid.New().String()+ext)
	if err := c.SaveFile(file, filePath); err != nil {
		h.logger.Error("Failed to save uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}

	result, err := h.ingestService.ProcessStatement(c.Context(), filePath)
	if err != nil {
		h.logger.Error("Failed to process statement", zap.String("file", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to process statement",
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// ListExpenses returns stored records, oldest first.
func (h *StatementHandler) ListExpenses(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, err := h.repo.List(c.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list expenses",
		})
	}

	responses := make([]dto.ExpenseResponse, len(records))
	for i, rec := range records {
		responses[i] = dto.ExpenseResponse{
			ID:       rec.ID,
			Date:     rec.Date,
			Account:  rec.Account,
			Amount:   rec.Amount,
			Category: rec.Category,
		}
	}

	return c.JSON(responses)
}

// CountExpenses returns the number of stored records.
func (h *StatementHandler) CountExpenses(c *fiber.Ctx) error {
	count, err := h.repo.Count(c.Context())
	if err != nil {
		h.logger.Error("Failed to count expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count expenses",
		})
	}

	return c.JSON(fiber.Map{"count": count})
}
