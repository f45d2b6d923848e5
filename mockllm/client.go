package mockllm

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
)

var styles = []string{
	"highly detailed, digital painting, artstation, concept art, sharp focus, illustration",
	"intricate, elegant, octane render, 8k, trending on artstation",
	"cinematic lighting, matte painting, by greg rutkowski and alphonse mucha",
	"soft light, volumetric, unreal engine, hyperrealistic, 4k",
	"vibrant colors, smooth, sharp focus, by artgerm",
}

// MockLLMClient imitates a causal LM for development: it echoes the prompt
// and continues it with a style suffix picked from the prompt hash, so the
// same prompt always yields the same sequences.
type MockLLMClient struct {
	Latency time.Duration
}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

func (c MockLLMClient) Load(ctx context.Context) error {
	return nil
}

func (c MockLLMClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	subject := strings.TrimSpace(strings.TrimSuffix(prompt, models.RephraseMarker))

	n := params.NumReturnSequences
	if n <= 0 {
		n = 1
	}

	h := fnv.New32a()
	h.Write([]byte(subject))
	start := int(h.Sum32() % uint32(len(styles)))

	sequences := make([]string, 0, n)
	for i := 0; i < n; i++ {
		continuation := styles[(start+i)%len(styles)]
		if subject != "" {
			continuation = subject + ", " + continuation
		}
		sequences = append(sequences, prompt+" "+truncateWords(continuation, params.MaxNewTokens))
	}

	return sequences, nil
}

// truncateWords approximates the new-token budget with whitespace words.
func truncateWords(s string, max int) string {
	if max <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

func (c MockLLMClient) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: config.ProviderMock,
		Model:    "mock-promptist",
	}
}
