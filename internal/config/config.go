// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	GRPCHealthPort  string // empty disables the gRPC health server
	ConversationTTL time.Duration
	ReplyDelay      time.Duration // cosmetic "agent is typing" pause
	Webhook         WebhookConfig
	Delivery        DeliveryConfig
	RateLimit       RateLimitConfig
	ConversationLog ConversationLogConfig
	Site            SiteConfig
}

// WebhookConfig describes the external lead collection endpoint.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// DeliveryConfig controls background re-delivery of failed leads.
type DeliveryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	SweepInterval time.Duration
	StaleAfter    time.Duration // pending leads older than this count as interrupted
}

// RateLimitConfig bounds how many chat messages a visitor may post per window.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ConversationLogConfig controls NDJSON transcript logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// SiteConfig holds the contact details rendered on the landing page.
type SiteConfig struct {
	LinkedInURL string
	Phone       string
	Email       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/landing.db"),
		GRPCHealthPort:  getEnv("GRPC_HEALTH_PORT", ""),
		ConversationTTL: getEnvDuration("CONVERSATION_TTL", 24*time.Hour),
		ReplyDelay:      getEnvDuration("CHAT_REPLY_DELAY", 600*time.Millisecond),
		Webhook: WebhookConfig{
			URL:     strings.TrimSpace(getEnv("LEAD_WEBHOOK_URL", "")),
			Timeout: getEnvDuration("LEAD_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Delivery: DeliveryConfig{
			MaxAttempts:   getEnvInt("LEAD_MAX_ATTEMPTS", 5),
			BaseDelay:     getEnvDuration("LEAD_RETRY_BASE_DELAY", 30*time.Second),
			SweepInterval: getEnvDuration("LEAD_SWEEP_INTERVAL", time.Minute),
			StaleAfter:    getEnvDuration("LEAD_STALE_AFTER", 2*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("CHAT_RATE_LIMIT", 20),
			WindowDuration:    getEnvDuration("CHAT_RATE_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
		Site: SiteConfig{
			LinkedInURL: getEnv("SITE_LINKEDIN_URL", "https://www.linkedin.com/in/serhii-mosiiash-a0608a167/"),
			Phone:       getEnv("SITE_PHONE", "095 839 77 99"),
			Email:       getEnv("SITE_EMAIL", "nmdaihub@gmail.com"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Webhook.URL != "" && !strings.HasPrefix(c.Webhook.URL, "http://") && !strings.HasPrefix(c.Webhook.URL, "https://") {
		return fmt.Errorf("LEAD_WEBHOOK_URL must be an http(s) URL")
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("LEAD_WEBHOOK_TIMEOUT must be > 0")
	}
	if c.Delivery.MaxAttempts <= 0 {
		return fmt.Errorf("LEAD_MAX_ATTEMPTS must be > 0")
	}
	if c.Delivery.SweepInterval <= 0 {
		return fmt.Errorf("LEAD_SWEEP_INTERVAL must be > 0")
	}
	if c.Delivery.StaleAfter <= c.Webhook.Timeout {
		return fmt.Errorf("LEAD_STALE_AFTER must exceed LEAD_WEBHOOK_TIMEOUT")
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_WINDOW must be > 0")
	}
	if c.ReplyDelay < 0 {
		return fmt.Errorf("CHAT_REPLY_DELAY cannot be negative")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// WebhookEnabled reports whether leads are forwarded to an external endpoint.
func (c *Config) WebhookEnabled() bool {
	return c.Webhook.URL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s", "5m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
