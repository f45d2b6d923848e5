package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
)

// HuggingFaceClient talks to a text-generation runtime that addresses models
// by registry name, such as the Hugging Face Inference API or a self-hosted
// transformers server with the same contract.
type HuggingFaceClient struct {
	huggingFaceConfig config.HuggingFaceConfig
	httpClient        *http.Client
}

func NewHuggingFaceClient(huggingFaceConfig config.HuggingFaceConfig, timeout time.Duration) *HuggingFaceClient {
	return &HuggingFaceClient{
		huggingFaceConfig: huggingFaceConfig,
		httpClient:        &http.Client{Timeout: timeout},
	}
}

// GeneratePayload is the body of a text-generation call.
type GeneratePayload struct {
	Inputs     string                  `json:"inputs"`
	Parameters models.GenerationParams `json:"parameters"`
	Options    GenerateOptions         `json:"options"`
}

type GenerateOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type GeneratedSequence struct {
	GeneratedText string `json:"generated_text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c HuggingFaceClient) modelURL() string {
	return strings.TrimRight(c.huggingFaceConfig.BaseUrl, "/") + "/" + strings.TrimLeft(c.huggingFaceConfig.Model, "/")
}

func (c HuggingFaceClient) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.modelURL(), body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if c.huggingFaceConfig.Token != "" {
		request.Header.Set("Authorization", "Bearer "+c.huggingFaceConfig.Token)
	}
	return request, nil
}

// Load resolves the model by name and fails if the runtime cannot serve it.
func (c HuggingFaceClient) Load(ctx context.Context) error {
	request, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("error loading model %s: %w", c.huggingFaceConfig.Model, err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("error loading model %s: unexpected status %d", c.huggingFaceConfig.Model, response.StatusCode)
	}

	return nil
}

// Generate runs one decode and returns every returned sequence, best first.
func (c HuggingFaceClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error) {
	payloadBytes, err := json.Marshal(GeneratePayload{
		Inputs:     prompt,
		Parameters: params,
		Options:    GenerateOptions{WaitForModel: true, UseCache: false},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	request, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer response.Body.Close()

	responseData, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(responseData, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("model runtime returned %d: %s", response.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("model runtime returned %d", response.StatusCode)
	}

	var sequences []GeneratedSequence
	if err := json.Unmarshal(responseData, &sequences); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	texts := make([]string, 0, len(sequences))
	for _, seq := range sequences {
		texts = append(texts, strings.ReplaceAll(seq.GeneratedText, models.GPT2EOSToken, ""))
	}

	return texts, nil
}

func (c HuggingFaceClient) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider:  config.ProviderHuggingFace,
		Model:     c.huggingFaceConfig.Model,
		Tokenizer: c.huggingFaceConfig.Tokenizer,
	}
}
