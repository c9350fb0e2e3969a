package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"expenselens/internal/repository"
	"expenselens/internal/service"
	"expenselens/pkg/config"
	"expenselens/pkg/sqlite"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter is a deterministic stand-in for the chat-completions
// endpoint.
type stubCompleter struct {
	fn    func(prompt string, params *service.GenerationParams) (string, error)
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, params *service.GenerationParams) (string, error) {
	s.calls++
	return s.fn(prompt, params)
}

// replyWith returns a completer that always answers with the given text.
func replyWith(reply string) *stubCompleter {
	return &stubCompleter{fn: func(string, *service.GenerationParams) (string, error) {
		return reply, nil
	}}
}

type stubParser struct {
	markup string
	err    error
}

func (s *stubParser) Parse(context.Context, string) (string, error) {
	return s.markup, s.err
}

func newTestRepo(t *testing.T) *repository.ExpenseRepository {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "expenses.db")}
	db, err := sqlite.Open(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewExpenseRepository(db, zap.NewNop())
}
