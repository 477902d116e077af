// Package config provides configuration for the widget host and the development backend.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the widget configuration.
type Config struct {
	// Backend settings
	BackendURL string `env:"WIDGET_BACKEND_URL" envDefault:"http://localhost:8000"`

	// Session identity
	CompanyID string `env:"WIDGET_COMPANY_ID"`
	AgentID   string `env:"WIDGET_AGENT_ID"`
	SessionID string `env:"WIDGET_SESSION_ID"`

	// Presentation
	Skin              string `env:"WIDGET_SKIN" envDefault:"generic"`
	Language          string `env:"WIDGET_LANGUAGE" envDefault:"en"`
	RTL               bool   `env:"WIDGET_RTL" envDefault:"false"`
	CustomizationFile string `env:"WIDGET_CUSTOMIZATION_FILE"`

	// WebSocket settings
	DialTimeout    time.Duration `env:"WS_DIAL_TIMEOUT" envDefault:"10s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	ReadTimeout    time.Duration `env:"WS_READ_TIMEOUT" envDefault:"60s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"65536"`

	// REST settings
	RequestTimeout time.Duration `env:"REST_TIMEOUT" envDefault:"15s"`

	// Preview settings
	PreviewDelay time.Duration `env:"PREVIEW_REPLY_DELAY" envDefault:"1s"`

	// Development backend
	BackendPort int    `env:"BACKEND_PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:widget.db?cache=shared&mode=rwc"`
	PolicyFile  string `env:"POLICY_FILE"`

	// Logging: "debug" adds per-connection and per-frame lines
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a live widget session cannot start without.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend url is required")
	}
	if c.CompanyID == "" {
		return fmt.Errorf("company id is required")
	}
	if c.AgentID == "" {
		return fmt.Errorf("agent id is required")
	}
	return nil
}

// Debug reports whether LOG_LEVEL asks for per-frame logging.
func (c *Config) Debug() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug")
}
