package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"expenselens/internal/dto"
	"expenselens/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrNoQuery means the model reply contained no complete, terminated
	// SELECT statement.
	ErrNoQuery = errors.New("no query produced")
	// ErrUnsafeQuery means the extracted statement failed the read-only
	// check and was never executed.
	ErrUnsafeQuery = errors.New("unsafe query rejected")
	// ErrNoData means the query ran successfully but matched no rows.
	ErrNoData = errors.New("no data found")
)

// statementPattern matches a complete statement from its SELECT clause
// through the terminating semicolon, spanning newlines, first match wins.
var statementPattern = regexp.MustCompile(`(?s)SELECT .*;`)

// QAService is the read path: question -> query -> first row -> answer.
type QAService struct {
	completer Completer
	repo      *repository.ExpenseRepository
	logger    *zap.Logger
}

func NewQAService(completer Completer, repo *repository.ExpenseRepository, logger *zap.Logger) *QAService {
	return &QAService{
		completer: completer,
		repo:      repo,
		logger:    logger,
	}
}

const queryPromptFormat = `Given a database, expenses with the columns: date in YYYY-MM-DD, account in company or person's name with all capitalized letters, amount where positive indicates received money and negative indicates lost money, and category that depends on the company's name and personal names are 'transfers'. Generate a complete and executable SQLite query for the following question: %s. Ensure the query is in a single line without any extra characters, and ends with a semicolon. The output should be a valid SQL query only. Do not include any additional text or formatting.`

const answerPromptFormat = "Based on the following data: %s\nAnswer this question: %s"

var (
	queryParams = GenerationParams{
		MaxTokens:         150,
		Temperature:       0.5,
		TopP:              0.7,
		TopK:              50,
		RepetitionPenalty: 1,
	}
	answerParams = GenerationParams{
		MaxTokens:         512,
		Temperature:       0.7,
		TopP:              0.7,
		TopK:              50,
		RepetitionPenalty: 1,
	}
)

// SynthesizeQuery asks the model to translate the question into a single
// SQLite statement and extracts it from the reply. Transport errors
// propagate; a reply without a complete statement yields ErrNoQuery.
func (s *QAService) SynthesizeQuery(ctx context.Context, question string) (string, error) {
	content, err := s.completer.Complete(ctx, fmt.Sprintf(queryPromptFormat, question), &queryParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate query: %w", err)
	}

	query := strings.TrimSpace(statementPattern.FindString(content))
	if query == "" {
		s.logger.Warn("No SQL statement found in model reply", zap.String("content", content))
		return "", ErrNoQuery
	}

	if err := checkReadOnly(query); err != nil {
		s.logger.Warn("Rejected generated query", zap.String("query", query), zap.Error(err))
		return "", err
	}

	s.logger.Info("Query synthesized", zap.String("query", query))
	return query, nil
}

// checkReadOnly rejects anything that is not a single SELECT statement.
// The generated query runs verbatim against the store, so this is the only
// barrier between the model and the data.
func checkReadOnly(query string) error {
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return ErrUnsafeQuery
	}
	// A second delimiter means a second statement rode along
	if strings.Contains(strings.TrimSuffix(query, ";"), ";") {
		return ErrUnsafeQuery
	}
	return nil
}

// Execute runs the synthesized query and returns the first result row
// rendered as text. No rows maps to ErrNoData; execution errors propagate.
func (s *QAService) Execute(ctx context.Context, query string) (string, error) {
	columns, values, err := s.repo.QueryFirstRow(ctx, query)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return "", ErrNoData
		}
		return "", err
	}

	return formatRow(columns, values), nil
}

// formatRow renders one result row for the answer prompt.
func formatRow(columns []string, values []any) string {
	pairs := make([]string, len(columns))
	for i, col := range columns {
		pairs[i] = fmt.Sprintf("%s=%v", col, values[i])
	}
	return "(" + strings.Join(pairs, ", ") + ")"
}

// SynthesizeAnswer asks the model to phrase the fetched row as a
// natural-language answer to the question. The reply is trimmed and
// accepted as-is.
func (s *QAService) SynthesizeAnswer(ctx context.Context, question, row string) (string, error) {
	content, err := s.completer.Complete(ctx, fmt.Sprintf(answerPromptFormat, row, question), &answerParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// AnswerQuestion runs the query pipeline: synthesize -> execute ->
// answer.
func (s *QAService) AnswerQuestion(ctx context.Context, question string) (*dto.AnswerResponse, error) {
	query, err := s.SynthesizeQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	row, err := s.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	answer, err := s.SynthesizeAnswer(ctx, question, row)
	if err != nil {
		return nil, err
	}

	return &dto.AnswerResponse{
		Question: question,
		Answer:   answer,
	}, nil
}
