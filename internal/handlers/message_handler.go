package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
	logger         *slog.Logger
}

func NewMessageHandler(messageService services.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

// @Summary      Анонимное сообщение
// @Description  Anyone can send; the recipient must be verified and accepting messages
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        body  body      models.SendMessageRequest  true  "Recipient and content"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.messageService.SendMessage(c.Request.Context(), req.Username, req.Content); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully"})
}

// @Summary      Мои сообщения
// @Tags         Messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	msgs, err := h.messageService.ListMessages(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// @Summary      Удалить сообщение
// @Tags         Messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(c.Request.Context(), p, c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message deleted"})
}
