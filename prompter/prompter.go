package prompter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/llmgate/promptist/models"
)

var ErrNoSequences = errors.New("model returned no sequences")

// Generator runs one decode through a model runtime and returns the decoded
// sequences, best first. Sequences may or may not echo the prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params models.GenerationParams) ([]string, error)
}

// Rephraser is implemented by Prompter and by decorators around it.
type Rephraser interface {
	Rephrase(ctx context.Context, input string) (string, error)
}

type Prompter struct {
	generator Generator
	params    models.GenerationParams
}

func NewPrompter(generator Generator, params models.GenerationParams) *Prompter {
	return &Prompter{
		generator: generator,
		params:    params,
	}
}

// Rephrase turns plain text into a model-preferred prompt.
func (p *Prompter) Rephrase(ctx context.Context, input string) (string, error) {
	sequences, err := p.generator.Generate(ctx, FormatPrompt(input), p.params)
	if err != nil {
		return "", fmt.Errorf("error generating rephrase: %w", err)
	}
	if len(sequences) == 0 {
		return "", ErrNoSequences
	}

	return StripPrompt(input, sequences[0]), nil
}

func FormatPrompt(input string) string {
	return strings.TrimSpace(input) + models.RephraseMarker
}

// StripPrompt removes the echoed prompt from a decoded sequence. The echo is
// matched against the trimmed input, which is what the model was fed; any
// marker the model repeated on its own is dropped as well.
func StripPrompt(input, decoded string) string {
	res := strings.ReplaceAll(decoded, FormatPrompt(input), "")
	for strings.Contains(res, models.RephraseMarker) {
		res = strings.ReplaceAll(res, models.RephraseMarker, "")
	}
	return strings.TrimSpace(res)
}
