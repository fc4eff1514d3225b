package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	AppURL       string `yaml:"app_url"`
	DryRun       bool   `yaml:"dry_run"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	CodeTTL           time.Duration `yaml:"code_ttl"`
	MaxVerifyAttempts int           `yaml:"max_verify_attempts"`
	ResendCooldown    time.Duration `yaml:"resend_cooldown"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	RedisAddr        string        `yaml:"redis_addr"`
	SendPerWindow    int           `yaml:"send_per_window"`
	SuggestPerWindow int           `yaml:"suggest_per_window"`
	AuthPerWindow    int           `yaml:"auth_per_window"`
	Window           time.Duration `yaml:"window"`
	FailOpen         bool          `yaml:"fail_open"`
}

type Config struct {
	Server struct {
		Port              int           `yaml:"port"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		// пусто: X-Forwarded-For игнорируется, ключ лимита = адрес соединения
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`
	Email     EmailConfig     `yaml:"email"`
	Auth      AuthConfig      `yaml:"auth"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LoadConfig reads the YAML file at path (CONFIG_PATH or DefaultPath when empty),
// applies environment overrides for secrets and fills defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = getEnv("CONFIG_PATH", DefaultPath)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// без файла работаем только на ENV
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Email.SMTPPassword = getEnv("SMTP_PASSWORD", c.Email.SMTPPassword)
	c.Gemini.APIKey = getEnv("GOOGLE_API_KEY", c.Gemini.APIKey)
	c.RateLimit.RedisAddr = getEnv("REDIS_ADDR", c.RateLimit.RedisAddr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.CodeTTL <= 0 {
		c.Auth.CodeTTL = 10 * time.Minute
	}
	if c.Auth.MaxVerifyAttempts <= 0 {
		c.Auth.MaxVerifyAttempts = 5
	}
	if c.Auth.ResendCooldown <= 0 {
		c.Auth.ResendCooldown = time.Minute
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.Timeout <= 0 {
		c.Gemini.Timeout = 15 * time.Second
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.SendPerWindow <= 0 {
		c.RateLimit.SendPerWindow = 10
	}
	if c.RateLimit.SuggestPerWindow <= 0 {
		c.RateLimit.SuggestPerWindow = 5
	}
	if c.RateLimit.AuthPerWindow <= 0 {
		c.RateLimit.AuthPerWindow = 20
	}
}

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database url is required (database.url or DATABASE_URL)")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: jwt secret must be at least 16 characters (auth.jwt_secret or JWT_SECRET)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
