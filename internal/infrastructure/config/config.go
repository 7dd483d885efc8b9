package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Desktop    DesktopConfig
	Storage    StorageConfig
	Simulation SimulationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8000"`
	Host           string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownGrace  time.Duration `envconfig:"SHUTDOWN_GRACE" default:"10s"`
	MaxSessions    int           `envconfig:"MAX_SESSIONS" default:"256"`
	SessionIdle    time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"1h"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DesktopConfig holds window manager geometry and input tuning.
type DesktopConfig struct {
	MenuBarHeight       int           `envconfig:"DESKTOP_MENU_BAR_HEIGHT" default:"28"`
	DockHeight          int           `envconfig:"DESKTOP_DOCK_HEIGHT" default:"80"`
	MinWindowWidth      int           `envconfig:"DESKTOP_MIN_WIDTH" default:"200"`
	MinWindowHeight     int           `envconfig:"DESKTOP_MIN_HEIGHT" default:"150"`
	ViewportWidth       int           `envconfig:"DESKTOP_VIEWPORT_WIDTH" default:"1440"`
	ViewportHeight      int           `envconfig:"DESKTOP_VIEWPORT_HEIGHT" default:"900"`
	DoubleClickInterval time.Duration `envconfig:"DESKTOP_DOUBLE_CLICK" default:"500ms"`
	DoubleClickSlop     int           `envconfig:"DESKTOP_DOUBLE_CLICK_SLOP" default:"4"`
}

// StorageConfig holds the location of durable state.
type StorageConfig struct {
	Dir string `envconfig:"STORAGE_DIR" default:"/tmp/moltos"`
}

// SimulationConfig holds the timings of the simulated services.
type SimulationConfig struct {
	StatusInterval   time.Duration `envconfig:"SIM_STATUS_INTERVAL" default:"3s"`
	StatusHistory    int           `envconfig:"SIM_STATUS_HISTORY" default:"120"`
	UpdateInterval   time.Duration `envconfig:"SIM_UPDATE_INTERVAL" default:"30m"`
	ChatReplyMin     time.Duration `envconfig:"SIM_CHAT_REPLY_MIN" default:"1s"`
	ChatReplyMax     time.Duration `envconfig:"SIM_CHAT_REPLY_MAX" default:"2s"`
	InstallStepDelay time.Duration `envconfig:"SIM_INSTALL_STEP" default:"800ms"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings that would break the desktop invariants.
func (c *Config) Validate() error {
	d := c.Desktop
	if d.MenuBarHeight < 0 || d.DockHeight < 0 {
		return fmt.Errorf("invalid config: chrome heights must be non-negative")
	}
	if d.MinWindowWidth <= 0 || d.MinWindowHeight <= 0 {
		return fmt.Errorf("invalid config: minimum window size must be positive")
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("invalid config: max sessions must be positive")
	}
	if c.Simulation.ChatReplyMax < c.Simulation.ChatReplyMin {
		return fmt.Errorf("invalid config: chat reply max %s below min %s",
			c.Simulation.ChatReplyMax, c.Simulation.ChatReplyMin)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
			ShutdownGrace:  10 * time.Second,
			MaxSessions:    256,
			SessionIdle:    time.Hour,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Desktop: DesktopConfig{
			MenuBarHeight:       28,
			DockHeight:          80,
			MinWindowWidth:      200,
			MinWindowHeight:     150,
			ViewportWidth:       1440,
			ViewportHeight:      900,
			DoubleClickInterval: 500 * time.Millisecond,
			DoubleClickSlop:     4,
		},
		Storage: StorageConfig{
			Dir: "/tmp/moltos",
		},
		Simulation: SimulationConfig{
			StatusInterval:   3 * time.Second,
			StatusHistory:    120,
			UpdateInterval:   30 * time.Minute,
			ChatReplyMin:     time.Second,
			ChatReplyMax:     2 * time.Second,
			InstallStepDelay: 800 * time.Millisecond,
		},
	}
}
