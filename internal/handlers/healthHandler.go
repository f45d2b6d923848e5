package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/promptist/models"
)

type HealthHandler struct {
	modelInfo models.ModelInfo
}

func NewHealthHandler(modelInfo models.ModelInfo) *HealthHandler {
	return &HealthHandler{
		modelInfo: modelInfo,
	}
}

// IsHealthy answers once the model is loaded, which happens before the
// server starts listening.
func (h *HealthHandler) IsHealthy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"provider":  h.modelInfo.Provider,
		"model":     h.modelInfo.Model,
		"tokenizer": h.modelInfo.Tokenizer,
	})
}
