package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
// It is loaded once at startup and handed to the router by value.
type Config struct {
	AppEnv string `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`

	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	AdminAddr       string        `mapstructure:"ADMIN_ADDR" validate:"required,hostname_port,nefield=HTTPAddr"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT" validate:"gte=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	// ClientMap is kept as raw JSON; it is parsed per token request so a
	// malformed value is reported to the caller rather than at startup.
	ClientMap      string `mapstructure:"CLIENT_MAP"`
	ClientID       string `mapstructure:"CLIENT_ID"`
	ClientSecret   string `mapstructure:"CLIENT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var keys = []string{
	"APP_ENV",
	"HTTP_ADDR",
	"ADMIN_ADDR",
	"SHUTDOWN_TIMEOUT",
	"UPSTREAM_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"CLIENT_MAP",
	"CLIENT_ID",
	"CLIENT_SECRET",
	"ALLOWED_ORIGINS",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8787")
	v.SetDefault("ADMIN_ADDR", "127.0.0.1:9090")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CLIENT_MAP", "")
	v.SetDefault("CLIENT_ID", "")
	v.SetDefault("CLIENT_SECRET", "")
	v.SetDefault("ALLOWED_ORIGINS", "")

	// Optional config file
	_ = v.ReadInConfig()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	var err error
	if c.ShutdownTimeout, err = parseDuration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	if c.UpstreamTimeout, err = parseDuration(v, "UPSTREAM_TIMEOUT"); err != nil {
		return nil, err
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// HasCredentials reports whether any credential source is configured.
func (c *Config) HasCredentials() bool {
	return c.ClientMap != "" || c.ClientSecret != ""
}

// Durations may arrive as strings from env or yaml.
func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	s := v.GetString(key)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
