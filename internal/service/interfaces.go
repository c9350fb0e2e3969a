package service

import "context"

// Completer is the narrow seam over the chat-completions API. The model is
// a non-deterministic oracle; tests swap it for a deterministic stub.
type Completer interface {
	// Complete sends a single user prompt and returns the first choice's
	// message content.
	Complete(ctx context.Context, prompt string, params *GenerationParams) (string, error)
}

// DocumentParser converts a binary document on disk into HTML markup via
// the remote document-parse service.
type DocumentParser interface {
	Parse(ctx context.Context, filePath string) (string, error)
}
