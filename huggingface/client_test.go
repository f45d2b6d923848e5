package huggingface

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HuggingFaceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHuggingFaceClient(config.HuggingFaceConfig{
		BaseUrl:   srv.URL + "/models/",
		Model:     "microsoft/Promptist",
		Tokenizer: "gpt2",
		Token:     "hf_test",
	}, 5*time.Second)
}

func TestGenerateSendsDecodingPolicy(t *testing.T) {
	var body []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/microsoft/Promptist", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)

		json.NewEncoder(w).Encode([]GeneratedSequence{
			{GeneratedText: "a cat Rephrase: a cat, artstation<|endoftext|>"},
			{GeneratedText: "a cat Rephrase: a cat"},
		})
	})

	sequences, err := client.Generate(context.Background(), "a cat Rephrase:", models.DefaultGenerationParams())
	require.NoError(t, err)

	assert.Equal(t, []string{"a cat Rephrase: a cat, artstation", "a cat Rephrase: a cat"}, sequences)

	var got GeneratePayload
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "a cat Rephrase:", got.Inputs)
	want := models.DefaultGenerationParams()
	want.PaddingSide = ""
	assert.Equal(t, want, got.Parameters)
	assert.True(t, got.Options.WaitForModel)

	// padding side is a tokenizer setting; generate() rejects it as a kwarg
	var raw struct {
		Parameters map[string]any `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.NotContains(t, raw.Parameters, "padding_side")
	assert.Equal(t, 8.0, raw.Parameters["num_beams"])
}

func TestGenerateRuntimeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model microsoft/Promptist is currently loading"}`))
	})

	_, err := client.Generate(context.Background(), "x Rephrase:", models.DefaultGenerationParams())
	assert.ErrorContains(t, err, "currently loading")
}

func TestGenerateMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generated_text": 3}`))
	})

	_, err := client.Generate(context.Background(), "x Rephrase:", models.DefaultGenerationParams())
	assert.ErrorContains(t, err, "error unmarshalling response")
}

func TestLoad(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"loaded": true}`))
	})
	assert.NoError(t, client.Load(context.Background()))

	missing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.ErrorContains(t, missing.Load(context.Background()), "unexpected status 404")
}

func TestModelInfo(t *testing.T) {
	client := NewHuggingFaceClient(config.HuggingFaceConfig{Model: "microsoft/Promptist", Tokenizer: "gpt2"}, time.Second)
	assert.Equal(t, models.ModelInfo{Provider: "huggingface", Model: "microsoft/Promptist", Tokenizer: "gpt2"}, client.ModelInfo())
}
