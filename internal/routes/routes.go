package routes

import (
	"github.com/gin-gonic/gin"

	"mystrymsg/internal/handlers"
	"mystrymsg/internal/middleware"
	"mystrymsg/internal/services"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Message  *handlers.MessageHandler
	Settings *handlers.SettingsHandler
	Suggest  *handlers.SuggestHandler
	Health   *handlers.HealthHandler
}

// Limits throttles the unauthenticated endpoints; nil entries disable throttling.
type Limits struct {
	Send    gin.HandlerFunc
	Suggest gin.HandlerFunc
	Auth    gin.HandlerFunc // register, verify, resend
}

func passthrough(c *gin.Context) { c.Next() }

func SetupRoutes(r *gin.Engine, h Handlers, authService services.AuthService, limits Limits) *gin.Engine {
	if limits.Send == nil {
		limits.Send = passthrough
	}
	if limits.Suggest == nil {
		limits.Suggest = passthrough
	}
	if limits.Auth == nil {
		limits.Auth = passthrough
	}

	// ---- public
	r.GET("/healthz", h.Health.Health)
	r.GET("/availability", h.Auth.CheckUsername)
	r.POST("/register", limits.Auth, h.Auth.Register)
	r.POST("/verify/:username", limits.Auth, h.Auth.Verify)
	r.POST("/verify/:username/resend", limits.Auth, h.Auth.Resend)
	r.POST("/signin", h.Auth.SignIn)

	// анонимные отправители
	r.POST("/messages", limits.Send, h.Message.Send)
	r.POST("/suggest-messages", limits.Suggest, h.Suggest.Suggest)

	// ---- protected
	auth := middleware.AuthMiddleware(authService)

	messages := r.Group("/messages", auth)
	{
		messages.GET("", h.Message.List)
		messages.DELETE("/:id", h.Message.Delete)
	}

	settings := r.Group("/settings", auth)
	{
		settings.GET("/accept-messages", h.Settings.GetAcceptMessages)
		settings.POST("/accept-messages", h.Settings.SetAcceptMessages)
	}

	return r
}
