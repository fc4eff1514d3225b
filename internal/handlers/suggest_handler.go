package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

type SuggestHandler struct {
	suggestionService services.SuggestionService
	logger            *slog.Logger
}

func NewSuggestHandler(suggestionService services.SuggestionService, logger *slog.Logger) *SuggestHandler {
	return &SuggestHandler{suggestionService: suggestionService, logger: logger}
}

// @Summary      AI-подсказки для сообщений
// @Description  Body is optional; without a prompt three generic questions are requested
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        body  body      models.SuggestRequest  false  "Custom prompt"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /suggest-messages [post]
func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req models.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.suggestionService.Suggest(c.Request.Context(), req.Prompt)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "text": out.Text, "suggestions": out.Suggestions})
}
