package server

import (
	"context"
	"fmt"

	"github.com/llmgate/promptist/claude"
	"github.com/llmgate/promptist/gemini"
	"github.com/llmgate/promptist/huggingface"
	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/mockllm"
	"github.com/llmgate/promptist/models"
	"github.com/llmgate/promptist/openai"
	"github.com/llmgate/promptist/prompter"
)

// Backend is a model runtime the rewriter can decode through.
type Backend interface {
	prompter.Generator
	Load(ctx context.Context) error
	ModelInfo() models.ModelInfo
}

// NewBackend builds the configured backend and loads its model. Callers must
// treat an error as fatal; the server never runs without a model.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, func() error, error) {
	noop := func() error { return nil }

	var backend Backend
	closer := noop
	switch cfg.Rewriter.Provider {
	case config.ProviderHuggingFace:
		backend = huggingface.NewHuggingFaceClient(cfg.HuggingFace, cfg.Rewriter.Timeout)
	case config.ProviderOpenAI:
		backend = openai.NewOpenAIClient(cfg.OpenAI, cfg.Rewriter.Timeout)
	case config.ProviderGemini:
		geminiClient, err := gemini.NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, noop, err
		}
		backend, closer = geminiClient, geminiClient.Close
	case config.ProviderClaude:
		backend = claude.NewClaudeClient(cfg.Claude)
	case config.ProviderMock:
		backend = mockllm.NewMockLLMClient()
	default:
		return nil, noop, fmt.Errorf("unsupported rewriter provider %q", cfg.Rewriter.Provider)
	}

	if err := backend.Load(ctx); err != nil {
		closer()
		return nil, noop, fmt.Errorf("failed to load %s model: %w", cfg.Rewriter.Provider, err)
	}

	return backend, closer, nil
}
