package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"expenselens/internal/api"
	"expenselens/internal/api/handlers"
	"expenselens/internal/models"
	"expenselens/internal/repository"
	"expenselens/internal/service"
	"expenselens/pkg/config"
	"expenselens/pkg/sqlite"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completerFunc func(ctx context.Context, prompt string, params *service.GenerationParams) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string, params *service.GenerationParams) (string, error) {
	return f(ctx, prompt, params)
}

func newTestApp(t *testing.T, completer service.Completer, seed []*models.ExpenseRecord) *fiber.App {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "expenses.db")}
	db, err := sqlite.Open(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewExpenseRepository(db, zap.NewNop())
	for _, rec := range seed {
		require.NoError(t, repo.Insert(context.Background(), rec))
	}

	extractor := service.NewExtractService(completer, zap.NewNop())
	parser := failingParser{}
	ingestService := service.NewIngestService(parser, extractor, repo, zap.NewNop())
	qaService := service.NewQAService(completer, repo, zap.NewNop())

	statementHandler := handlers.NewStatementHandler(ingestService, repo, t.TempDir(), zap.NewNop())
	questionHandler := handlers.NewQuestionHandler(qaService, zap.NewNop())

	return api.SetupRouter(statementHandler, questionHandler)
}

type failingParser struct{}

func (failingParser) Parse(context.Context, string) (string, error) {
	return "", errors.New("document-parse unavailable")
}

func askRequest(question string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(`{"question": "`+question+`"}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestQuestionHandler_AskQuestion(t *testing.T) {
	seed := []*models.ExpenseRecord{
		{Date: "2024-03-02", Account: "KEPCO", Amount: -60.50, Category: "utilities"},
	}

	t.Run("Success", func(t *testing.T) {
		calls := 0
		completer := completerFunc(func(_ context.Context, prompt string, _ *service.GenerationParams) (string, error) {
			calls++
			if calls == 1 {
				return "SELECT SUM(amount) AS total FROM expenses;", nil
			}
			return "You spent 60.50 overall.", nil
		})
		app := newTestApp(t, completer, seed)

		resp, err := app.Test(askRequest("how much did I spend?"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "how much did I spend?", body.Question)
		assert.Equal(t, "You spent 60.50 overall.", body.Answer)
	})

	t.Run("NoDataIsNotFound", func(t *testing.T) {
		completer := completerFunc(func(context.Context, string, *service.GenerationParams) (string, error) {
			return "SELECT * FROM expenses WHERE account = 'NOBODY';", nil
		})
		app := newTestApp(t, completer, seed)

		resp, err := app.Test(askRequest("what did nobody spend?"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "No data found")
	})

	t.Run("NoQueryIsUnprocessable", func(t *testing.T) {
		completer := completerFunc(func(context.Context, string, *service.GenerationParams) (string, error) {
			return "I cannot translate that into SQL.", nil
		})
		app := newTestApp(t, completer, seed)

		resp, err := app.Test(askRequest("gibberish"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("CollaboratorFailureIsBadGateway", func(t *testing.T) {
		completer := completerFunc(func(context.Context, string, *service.GenerationParams) (string, error) {
			return "", errors.New("upstream timeout")
		})
		app := newTestApp(t, completer, seed)

		resp, err := app.Test(askRequest("anything?"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("EmptyQuestionIsBadRequest", func(t *testing.T) {
		completer := completerFunc(func(context.Context, string, *service.GenerationParams) (string, error) {
			t.Fatal("completer must not be called for an empty question")
			return "", nil
		})
		app := newTestApp(t, completer, seed)

		resp, err := app.Test(askRequest(" "))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestStatementHandler_IngestFailureIsBadGateway(t *testing.T) {
	completer := completerFunc(func(context.Context, string, *service.GenerationParams) (string, error) {
		return "[]", nil
	})
	app := newTestApp(t, completer, nil)

	body := &strings.Builder{}
	boundary := "testboundary"
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"statement.pdf\"\r\n")
	body.WriteString("Content-Type: application/pdf\r\n\r\n")
	body.WriteString("%PDF-1.4 fake content\r\n")
	body.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
