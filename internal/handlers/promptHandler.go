package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmgate/promptist/internal/utils"
	"github.com/llmgate/promptist/prompter"
	"github.com/llmgate/promptist/web"
)

const inputTextFormKey = "input_text"

var ErrMissingInput = errors.New(inputTextFormKey + " is required")

// RephraseRecorder receives one observation per rewrite.
type RephraseRecorder interface {
	RecordRephrase(provider string, err error, duration time.Duration)
}

type PromptHandler struct {
	rephraser prompter.Rephraser
	provider  string
	recorder  RephraseRecorder
	logger    *zap.Logger
}

func NewPromptHandler(rephraser prompter.Rephraser, provider string, recorder RephraseRecorder, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{
		rephraser: rephraser,
		provider:  provider,
		recorder:  recorder,
		logger:    logger,
	}
}

// Home renders the empty form.
func (h *PromptHandler) Home(c *gin.Context) {
	c.Render(http.StatusOK, web.HTML{Page: web.Page{}})
}

// Generate rewrites input_text and renders the form again with the result.
func (h *PromptHandler) Generate(c *gin.Context) {
	inputText, ok := c.GetPostForm(inputTextFormKey)
	if !ok {
		c.Error(ErrMissingInput)
		utils.ProcessGenericBadRequest(c, "", ErrMissingInput.Error())
		return
	}

	start := time.Now()
	outputText, err := h.rephraser.Rephrase(c.Request.Context(), inputText)
	if h.recorder != nil {
		h.recorder.RecordRephrase(h.provider, err, time.Since(start))
	}
	if err != nil {
		c.Error(err)
		h.logger.Error("rephrase failed",
			zap.String("provider", h.provider),
			zap.Int("input_chars", len(inputText)),
			zap.Error(err))
		utils.ProcessGenericInternalError(c, inputText)
		return
	}

	c.Render(http.StatusOK, web.HTML{Page: web.Page{Input: inputText, Output: &outputText}})
}
