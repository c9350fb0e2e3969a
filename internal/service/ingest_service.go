package service

import (
	"context"
	"fmt"

	"expenselens/internal/dto"
	"expenselens/internal/repository"

	"go.uber.org/zap"
)

// IngestService is the write path: document -> markup -> records -> store.
type IngestService struct {
	parser    DocumentParser
	extractor *ExtractService
	repo      *repository.ExpenseRepository
	logger    *zap.Logger
}

func NewIngestService(
	parser DocumentParser,
	extractor *ExtractService,
	repo *repository.ExpenseRepository,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		parser:    parser,
		extractor: extractor,
		repo:      repo,
		logger:    logger,
	}
}

// ProcessStatement runs the ingestion pipeline for one saved document. Any
// extraction failure aborts before a single insert; an empty extraction is
// a valid zero-count outcome, not an error. Insertion is per-record:
// failed records are skipped and logged, siblings proceed.
func (s *IngestService) ProcessStatement(ctx context.Context, filePath string) (*dto.IngestResponse, error) {
	markup, err := s.parser.Parse(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	records, err := s.extractor.Interpret(ctx, markup)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret markup: %w", err)
	}

	if len(records) == 0 {
		s.logger.Info("No expenses extracted from document", zap.String("file", filePath))
		return &dto.IngestResponse{RecordCount: 0}, nil
	}

	inserted := s.repo.InsertAll(ctx, records)

	responses := make([]dto.ExpenseResponse, len(inserted))
	for i, rec := range inserted {
		responses[i] = dto.ExpenseResponse{
			ID:       rec.ID,
			Date:     rec.Date,
			Account:  rec.Account,
			Amount:   rec.Amount,
			Category: rec.Category,
		}
	}

	s.logger.Info("Statement ingested",
		zap.String("file", filePath),
		zap.Int("extracted", len(records)),
		zap.Int("inserted", len(inserted)),
	)

	return &dto.IngestResponse{
		RecordCount: len(inserted),
		Records:     responses,
	}, nil
}
