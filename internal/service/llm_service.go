package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"expenselens/pkg/config"

	"go.uber.org/zap"
)

// GenerationParams are the decoding parameters for one chat-completion
// call. Zero values are omitted from the request so the endpoint applies
// its own defaults.
type GenerationParams struct {
	MaxTokens         int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
}

type LLMService struct {
	config     *config.LLMConfig
	logger     *zap.Logger
	httpClient *http.Client
}

func NewLLMService(cfg *config.LLMConfig, logger *zap.Logger) *LLMService {
	return &LLMService{
		config:     cfg,
		logger:     logger,
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	Stop              []string      `json:"stop,omitempty"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
	Temperature       float64       `json:"temperature,omitempty"`
	TopP              float64       `json:"top_p,omitempty"`
	TopK              int           `json:"top_k,omitempty"`
	RepetitionPenalty float64       `json:"repetition_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one user message to the chat-completions endpoint and
// returns the first choice's content. Transport and auth failures surface
// verbatim; nothing is retried.
func (s *LLMService) Complete(ctx context.Context, prompt string, params *GenerationParams) (string, error) {
	reqBody := chatRequest{
		Model:    s.config.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stop:     s.config.Stop,
	}
	if params != nil {
		reqBody.MaxTokens = params.MaxTokens
		reqBody.Temperature = params.Temperature
		reqBody.TopP = params.TopP
		reqBody.TopK = params.TopK
		reqBody.RepetitionPenalty = params.RepetitionPenalty
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	return chatResp.Choices[0].Message.Content, nil
}
