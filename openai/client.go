package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
)

// greedyTemperature stands in for 0, which go-openai drops from the request
// body and the server would replace with its default of 1.
const greedyTemperature = 1e-6

// OpenAIClient drives an OpenAI-compatible completions server (vLLM, TGI,
// llama.cpp) that hosts the rewrite model. The completions API has no beam
// or length-penalty knobs, so the policy maps onto greedy best-of-N.
type OpenAIClient struct {
	openaiConfig config.OpenAIConfig
	client       *openaigo.Client
}

func NewOpenAIClient(openaiConfig config.OpenAIConfig, timeout time.Duration) *OpenAIClient {
	clientConfig := openaigo.DefaultConfig(openaiConfig.Key)
	if openaiConfig.BaseUrl != "" {
		clientConfig.BaseURL = strings.TrimRight(openaiConfig.BaseUrl, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		openaiConfig: openaiConfig,
		client:       openaigo.NewClientWithConfig(clientConfig),
	}
}

func toCompletionRequest(model, prompt string, params models.GenerationParams) openaigo.CompletionRequest {
	request := openaigo.CompletionRequest{
		Model:     model,
		Prompt:    prompt,
		MaxTokens: params.MaxNewTokens,
		N:         params.NumReturnSequences,
		BestOf:    params.NumBeams,
		Echo:      params.ReturnFullText,
		Stop:      []string{models.GPT2EOSToken},
	}
	if !params.DoSample {
		request.Temperature = greedyTemperature
	}
	return request
}

// Load checks that the server lists the configured model.
func (c OpenAIClient) Load(ctx context.Context) error {
	modelsList, err := c.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("error listing models: %w", err)
	}

	for _, model := range modelsList.Models {
		if model.ID == c.openaiConfig.Model {
			return nil
		}
	}

	return fmt.Errorf("model %s is not served by %s", c.openaiConfig.Model, c.openaiConfig.BaseUrl)
}

func (c OpenAIClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error) {
	response, err := c.client.CreateCompletion(ctx, toCompletionRequest(c.openaiConfig.Model, prompt, params))
	if err != nil {
		return nil, fmt.Errorf("error creating completion: %w", err)
	}

	texts := make([]string, len(response.Choices))
	for _, choice := range response.Choices {
		if choice.Index < 0 || choice.Index >= len(texts) {
			continue
		}
		texts[choice.Index] = choice.Text
	}

	return texts, nil
}

func (c OpenAIClient) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: config.ProviderOpenAI,
		Model:    c.openaiConfig.Model,
	}
}
