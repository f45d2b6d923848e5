package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
	"github.com/llmgate/promptist/utils"
)

type GeminiClient struct {
	geminiConfig config.GeminiConfig
	client       *genai.Client
}

func NewGeminiClient(ctx context.Context, geminiConfig config.GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(geminiConfig.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		geminiConfig: geminiConfig,
		client:       client,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) generativeModel(params models.GenerationParams) *genai.GenerativeModel {
	genModel := c.client.GenerativeModel(c.geminiConfig.Model)
	genModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(utils.RewriteInstruction)},
	}
	genModel.SetMaxOutputTokens(int32(params.MaxNewTokens))
	genModel.SetCandidateCount(1)
	if !params.DoSample {
		genModel.SetTemperature(0)
	}
	return genModel
}

// Load resolves the configured model by name.
func (c *GeminiClient) Load(ctx context.Context) error {
	if _, err := c.client.GenerativeModel(c.geminiConfig.Model).Info(ctx); err != nil {
		return fmt.Errorf("error loading gemini model %s: %w", c.geminiConfig.Model, err)
	}
	return nil
}

// Generate asks an instruction-tuned model for the rewrite. The reply does
// not echo the prompt.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error) {
	geminiResponse, err := c.generativeModel(params).GenerateContent(ctx, genai.Text(utils.InstructionPrompt(prompt)))
	if err != nil {
		return nil, fmt.Errorf("error generating content: %w", err)
	}

	return candidateTexts(geminiResponse), nil
}

func candidateTexts(geminiResponse *genai.GenerateContentResponse) []string {
	texts := make([]string, 0, len(geminiResponse.Candidates))
	for _, candidate := range geminiResponse.Candidates {
		if candidate.Content == nil {
			continue
		}
		var text string
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
		texts = append(texts, utils.CleanModelResponse(text))
	}
	return texts
}

func (c *GeminiClient) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: config.ProviderGemini,
		Model:    c.geminiConfig.Model,
	}
}
