package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/promptist/web"
)

func ProcessGenericBadRequest(c *gin.Context, input, message string) {
	c.Render(http.StatusBadRequest, web.HTML{Page: web.Page{Input: input, Error: message}})
}

func ProcessGenericInternalError(c *gin.Context, input string) {
	c.Render(http.StatusInternalServerError, web.HTML{Page: web.Page{Input: input, Error: "internal error, please try again"}})
}

func ProcessTooManyRequests(c *gin.Context) {
	c.Abort()
	c.Render(http.StatusTooManyRequests, web.HTML{Page: web.Page{Error: "rate limit exceeded, please slow down"}})
}
