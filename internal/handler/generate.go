package handler

import (
	"errors"
	"net/http"

	"llmrelay/internal/engine"
	"llmrelay/internal/model"
	"llmrelay/internal/schema"
	"llmrelay/internal/service"

	"github.com/gin-gonic/gin"
)

type GenerateHandler struct {
	genService *service.GenerationService
}

func NewGenerateHandler(genService *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{genService: genService}
}

// Generate 处理生成请求
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: " + err.Error()})
		return
	}
	if req.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "model is required"})
		return
	}

	resp, err := h.genService.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForGenerateError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusForGenerateError 调用方错误给 400，其余（含缺凭证、传输失败）一律 500
func statusForGenerateError(err error) int {
	var syntaxErr *schema.SyntaxError
	if errors.Is(err, engine.ErrEmptyPrompt) || errors.As(err, &syntaxErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
