package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

type SettingsHandler struct {
	accountService services.AccountService
	logger         *slog.Logger
}

func NewSettingsHandler(accountService services.AccountService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{accountService: accountService, logger: logger}
}

// @Summary      Статус приёма сообщений
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /settings/accept-messages [get]
func (h *SettingsHandler) GetAcceptMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	accepting, err := h.accountService.GetAcceptingMessages(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isAcceptingMessages": accepting})
}

// @Summary      Включить/выключить приём сообщений
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.AcceptMessagesRequest  true  "New value"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /settings/accept-messages [post]
func (h *SettingsHandler) SetAcceptMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.AcceptMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AcceptMessages == nil {
		fail(c, http.StatusBadRequest, "acceptMessages must be a boolean")
		return
	}

	accepting, err := h.accountService.SetAcceptingMessages(c.Request.Context(), p, *req.AcceptMessages)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"message":             "Message acceptance status updated successfully",
		"isAcceptingMessages": accepting,
	})
}
