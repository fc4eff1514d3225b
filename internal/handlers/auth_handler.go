package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

type AuthHandler struct {
	accountService services.AccountService
	logger         *slog.Logger
}

func NewAuthHandler(accountService services.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accountService: accountService, logger: logger}
}

// @Summary      Проверка имени пользователя
// @Description  Username is available unless a verified account owns it
// @Tags         Auth
// @Produce      json
// @Param        username  query     string  true  "Candidate username"
// @Success      200       {object}  map[string]interface{}
// @Failure      400       {object}  ErrorResponse
// @Router       /availability [get]
func (h *AuthHandler) CheckUsername(c *gin.Context) {
	username := c.Query("username")
	available, err := h.accountService.CheckUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	msg := "Username is available"
	if !available {
		msg = "Username is already taken"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "available": available, "message": msg})
}

// @Summary      Регистрация
// @Description  Creates a pending account and emails a 6-digit verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Registration data"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	username, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "User registered successfully. Please verify your account.",
		"username": username,
	})
}

// @Summary      Подтверждение кода
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        username  path      string                true  "Username"
// @Param        body      body      models.VerifyRequest  true  "Code"
// @Success      200       {object}  map[string]interface{}
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      429       {object}  ErrorResponse
// @Router       /verify/{username} [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.accountService.VerifyCode(c.Request.Context(), c.Param("username"), req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"verified": true,
		"message":  "Account verified successfully",
		"user":     p,
	})
}

// @Summary      Повторная отправка кода
// @Tags         Auth
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  map[string]interface{}
// @Failure      404       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse
// @Failure      429       {object}  ErrorResponse
// @Failure      502       {object}  ErrorResponse
// @Router       /verify/{username}/resend [post]
func (h *AuthHandler) Resend(c *gin.Context) {
	if err := h.accountService.ResendCode(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
}

// @Summary      Вход в систему
// @Description  Accepts username or email; only verified accounts can sign in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.SignInRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  ErrorResponse
// @Router       /signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, token, err := h.accountService.SignIn(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": p})
}
