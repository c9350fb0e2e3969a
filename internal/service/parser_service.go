package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"expenselens/pkg/config"

	"go.uber.org/zap"
)

// ParserService sends a statement file to the remote document-parse
// service and returns the HTML markup it produces.
type ParserService struct {
	config     *config.ParserConfig
	logger     *zap.Logger
	httpClient *http.Client
}

func NewParserService(cfg *config.ParserConfig, logger *zap.Logger) *ParserService {
	return &ParserService{
		config:     cfg,
		logger:     logger,
		httpClient: &http.Client{},
	}
}

// Parse uploads the file and returns the markup. Any non-success response
// is fatal for the current ingestion and propagates verbatim, no retry.
func (s *ParserService) Parse(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("document", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/document-parse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call document-parse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("document-parse failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parseResp struct {
		Content struct {
			HTML string `json:"html"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parseResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if parseResp.Content.HTML == "" {
		return "", fmt.Errorf("document-parse returned no content")
	}

	s.logger.Info("Document parsed",
		zap.String("file", filePath),
		zap.Int("markup_length", len(parseResp.Content.HTML)),
	)

	return parseResp.Content.HTML, nil
}
