package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "mystrymsg/docs"
	"mystrymsg/internal/config"
	"mystrymsg/internal/database"
	"mystrymsg/internal/handlers"
	"mystrymsg/internal/logging"
	"mystrymsg/internal/metrics"
	"mystrymsg/internal/middleware"
	"mystrymsg/internal/repositories"
	"mystrymsg/internal/routes"
	"mystrymsg/internal/services"
	"mystrymsg/internal/utils"
)

// Options carries everything the HTTP layer needs. Run fills it from config;
// tests build it by hand.
type Options struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        handlers.Pinger
	Accounts  repositories.AccountRepository
	Messages  repositories.MessageRepository
	Email     services.EmailService
	Generator services.TextGenerator
	Limiter   middleware.Limiter
	Registry  *prometheus.Registry
}

func NewRouter(o Options) (*gin.Engine, error) {
	cfg := o.Config
	m := metrics.New(o.Registry)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accountService := services.NewAccountService(o.Accounts, authService, o.Email, m, o.Logger, services.VerificationPolicy{
		CodeTTL:        cfg.Auth.CodeTTL,
		MaxAttempts:    cfg.Auth.MaxVerifyAttempts,
		ResendCooldown: cfg.Auth.ResendCooldown,
	})
	messageService := services.NewMessageService(o.Accounts, o.Messages, m, o.Logger)
	suggestionService := services.NewSuggestionService(o.Generator, o.Logger)

	// === Handlers ===
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(accountService, o.Logger),
		Message:  handlers.NewMessageHandler(messageService, o.Logger),
		Settings: handlers.NewSettingsHandler(accountService, o.Logger),
		Suggest:  handlers.NewSuggestHandler(suggestionService, o.Logger),
		Health:   handlers.NewHealthHandler(o.DB),
	}

	mode := middleware.FailClosed
	if cfg.RateLimit.FailOpen {
		mode = middleware.FailOpen
	}
	limits := routes.Limits{
		Send:    middleware.RateLimit(o.Limiter, "send", cfg.RateLimit.SendPerWindow, cfg.RateLimit.Window, mode, o.Logger),
		Suggest: middleware.RateLimit(o.Limiter, "suggest", cfg.RateLimit.SuggestPerWindow, cfg.RateLimit.Window, mode, o.Logger),
		Auth:    middleware.RateLimit(o.Limiter, "auth", cfg.RateLimit.AuthPerWindow, cfg.RateLimit.Window, mode, o.Logger),
	}

	// === Gin ===
	router := gin.New()
	// лимиты считаются по ClientIP: заголовкам прокси верим только из списка
	var proxies []string
	if len(cfg.Server.TrustedProxies) > 0 {
		proxies = cfg.Server.TrustedProxies
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(o.Logger))
	router.Use(middleware.Metrics(m))
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{})))

	return routes.SetupRoutes(router, h, authService, limits), nil
}

func Run() error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := database.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("db close failed", "err", err)
		}
	}()
	logger.Info("database ready")

	// === Rate limiting ===
	var limiter middleware.Limiter = middleware.NewLocalLimiter()
	if cfg.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, limiter will apply failure mode", "addr", cfg.RateLimit.RedisAddr, "err", err)
		}
		limiter = middleware.NewRedisLimiter(rdb, "mystrymsg:rl")
	}

	// === Email ===
	var email services.EmailService
	if cfg.Email.DryRun || cfg.Email.SMTPHost == "" {
		logger.Warn("email dry-run: verification codes are written to the log")
		email = services.NewLogEmailService(logger)
	} else {
		email = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.AppURL,
		)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(Options{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Accounts:  repositories.NewAccountRepository(db),
		Messages:  repositories.NewMessageRepository(db),
		Email:     email,
		Generator: utils.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.Gemini.Timeout),
		Limiter:   limiter,
		Registry:  reg,
	})
	if err != nil {
		return err
	}

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
