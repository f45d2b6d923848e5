package models

const (
	// RephraseMarker is appended to the user prompt to make the model continue
	// with a rewritten version of it.
	RephraseMarker = " Rephrase:"

	// GPT2EOSTokenID is the end-of-text token of the gpt2 vocabulary, used as
	// both the eos and the pad token.
	GPT2EOSTokenID = 50256
	GPT2EOSToken   = "<|endoftext|>"
)

// GenerationParams is the decoding policy sent to the model runtime.
type GenerationParams struct {
	DoSample           bool    `json:"do_sample"`
	NumBeams           int     `json:"num_beams"`
	NumReturnSequences int     `json:"num_return_sequences"`
	MaxNewTokens       int     `json:"max_new_tokens"`
	LengthPenalty      float64 `json:"length_penalty"`
	EOSTokenID         int     `json:"eos_token_id"`
	PadTokenID         int     `json:"pad_token_id"`
	// PaddingSide configures the runtime's tokenizer and is not sent as a
	// generate() argument.
	PaddingSide        string  `json:"-"`
	ReturnFullText     bool    `json:"return_full_text"`
}

// DefaultGenerationParams returns the Promptist decoding policy: 8-beam
// deterministic search, 75 new tokens, negative length penalty.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		DoSample:           false,
		NumBeams:           8,
		NumReturnSequences: 8,
		MaxNewTokens:       75,
		LengthPenalty:      -1.0,
		EOSTokenID:         GPT2EOSTokenID,
		PadTokenID:         GPT2EOSTokenID,
		PaddingSide:        "left",
		ReturnFullText:     true,
	}
}

// ModelInfo describes the loaded model for /health.
type ModelInfo struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Tokenizer string `json:"tokenizer,omitempty"`
}
