package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
	"github.com/llmgate/promptist/utils"
)

type ClaudeClient struct {
	claudeConfig config.ClaudeConfig
	client       *anthropic.Client
}

func NewClaudeClient(claudeConfig config.ClaudeConfig) *ClaudeClient {
	return &ClaudeClient{
		claudeConfig: claudeConfig,
		client:       anthropic.NewClient(claudeConfig.Key),
	}
}

func toMessagesRequest(model, prompt string, params models.GenerationParams) anthropic.MessagesRequest {
	request := anthropic.MessagesRequest{
		Model:     model,
		System:    utils.RewriteInstruction,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(utils.InstructionPrompt(prompt))},
		MaxTokens: params.MaxNewTokens,
	}
	if !params.DoSample {
		temperature := float32(0)
		request.Temperature = &temperature
	}
	return request
}

// Load only checks that an API key is configured; the messages API has no
// cheap way to resolve a model by name.
func (c *ClaudeClient) Load(ctx context.Context) error {
	if c.claudeConfig.Key == "" {
		return fmt.Errorf("claude api key is not configured")
	}
	return nil
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error) {
	resp, err := c.client.CreateMessages(ctx, toMessagesRequest(c.claudeConfig.Model, prompt, params))
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return []string{responseText(resp)}, nil
}

func responseText(resp anthropic.MessagesResponse) string {
	var text strings.Builder
	for _, content := range resp.Content {
		text.WriteString(content.Text)
	}
	return utils.CleanModelResponse(text.String())
}

func (c *ClaudeClient) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: config.ProviderClaude,
		Model:    c.claudeConfig.Model,
	}
}
