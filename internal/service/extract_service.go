package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"expenselens/internal/models"

	"go.uber.org/zap"
)

// ExtractService turns statement markup into validated expense records via
// one prompted model call.
type ExtractService struct {
	completer Completer
	logger    *zap.Logger
}

func NewExtractService(completer Completer, logger *zap.Logger) *ExtractService {
	return &ExtractService{
		completer: completer,
		logger:    logger,
	}
}

const extractPromptFormat = `Given an HTML document containing data of a bank statement, extract the expenses and structure them for SQL insertion.
The data should be formatted with the following attributes: 'date', 'account', 'amount', 'category'.
'account' is inferred from 'DESCRIPTION'. The account name or 'account' can only be either a standalone or successive combination of nouns and/or acronyms, take the last combination. For example: 'account' for "FUND TRANSFER TO A/ RAJ" is "RAJ".
'category' should be inferred from the 'account'. Personal names like "Ted", "Lia", "Minji" have 'category' of "transfers", whereas other names are companies and the 'category' should be based on the company's sector such as "utilities", "education", "entertainment", "food", "accommodation", "onetime", "subscriptions".
'amount' is negative if a "-" is at the end and positive for "+": positive means money received, negative means money spent.
Provide the data in a list of objects, each formatted for SQL insertion without any extra strings or text. Ignore the "Total" entry.

Expected Output Format:
[
    {"date": "YYYY-MM-DD", "account": "Account Name", "amount": 123.45, "category": "Category Name"},
    ...
]

HTML: %s`

// buildExtractPrompt embeds the markup into the fixed extraction
// instruction.
func buildExtractPrompt(markup string) string {
	return fmt.Sprintf(extractPromptFormat, markup)
}

// Interpret sends the markup to the model and parses the reply into
// validated records, preserving document order. A reply that is not a
// parseable record list degrades to an empty result, logged, so the
// pipeline can still report "nothing extracted". Transport errors from the
// model call propagate.
func (s *ExtractService) Interpret(ctx context.Context, markup string) ([]*models.ExpenseRecord, error) {
	content, err := s.completer.Complete(ctx, buildExtractPrompt(markup), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate extraction: %w", err)
	}

	candidates := parseRecordList(content, s.logger)

	records := make([]*models.ExpenseRecord, 0, len(candidates))
	for _, rec := range candidates {
		if err := rec.Validate(); err != nil {
			s.logger.Warn("Dropping malformed candidate record",
				zap.String("account", rec.Account),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}

	s.logger.Info("Expense extraction completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// parseRecordList extracts the JSON array out of a model reply. The reply
// may wrap the array in markdown fences or prose; anything that still does
// not unmarshal yields an empty list rather than a partial one.
func parseRecordList(content string, logger *zap.Logger) []*models.ExpenseRecord {
	content = strings.TrimSpace(content)

	jsonStart := strings.Index(content, "[")
	jsonEnd := strings.LastIndex(content, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		logger.Warn("Model reply contains no record list", zap.String("content", content))
		return nil
	}

	jsonStr := content[jsonStart : jsonEnd+1]

	var records []*models.ExpenseRecord
	if err := json.Unmarshal([]byte(jsonStr), &records); err != nil {
		jsonStr = strings.TrimSpace(jsonStr)
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(jsonStr, "```")
		jsonStr = strings.TrimSpace(jsonStr)

		if err := json.Unmarshal([]byte(jsonStr), &records); err != nil {
			logger.Warn("Failed to parse record list from model reply", zap.Error(err))
			return nil
		}
	}

	return records
}
