package config

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/propfair-web/internal/env"
)

const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultCity     = "Bogotá"
	DefaultMapStyle = "https://basemaps.cartocdn.com/gl/positron-gl-style/style.json"
)

// Config holds everything the web server reads from the environment.
type Config struct {
	AppName string
	Port    int

	API       APIConfig
	Search    SearchConfig
	HTTP      HTTPConfig
	Log       LogConfig
	FluentBit FluentBitConfig
}

type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryMax   int
	RatePerSec float64
}

type SearchConfig struct {
	DefaultCity    string
	SessionIdleTTL time.Duration
	MapStyleURL    string
}

type HTTPConfig struct {
	RateLimitPerMin int
	CORSOrigins     []string
}

type LogConfig struct {
	Level string
	JSON  bool
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

// Load reads an optional .env file (paths default to ./.env) and then the
// process environment. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(paths...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Println("[config] no .env file found, using process environment")
	}

	cfg := &Config{
		AppName: env.Get("APP_NAME", "propfair-web"),
		Port:    env.GetInt("PORT", 4002),
		API: APIConfig{
			BaseURL:    env.Get("API_URL", DefaultAPIURL),
			Timeout:    env.GetDuration("API_TIMEOUT", 0),
			RetryMax:   env.GetInt("API_RETRY_MAX", 0),
			RatePerSec: env.GetFloat("API_RATE_PER_SEC", 0),
		},
		Search: SearchConfig{
			DefaultCity:    env.Get("DEFAULT_CITY", DefaultCity),
			SessionIdleTTL: env.GetDuration("SESSION_IDLE_TTL", 30*time.Minute),
			MapStyleURL:    env.Get("MAP_STYLE_URL", DefaultMapStyle),
		},
		HTTP: HTTPConfig{
			RateLimitPerMin: env.GetInt("RATE_LIMIT_PER_MIN", 100),
			CORSOrigins:     env.GetList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Log: LogConfig{
			Level: env.Get("LOG_LEVEL", "info"),
			JSON:  env.GetBool("LOG_JSON", false),
		},
		FluentBit: FluentBitConfig{
			Enabled: env.GetBool("FLUENTBIT_ENABLED", false),
			Host:    env.Get("FLUENTBIT_HOST", ""),
			Port:    env.GetInt("FLUENTBIT_PORT", 24224),
			Level:   env.Get("FLUENTBIT_LOG_LEVEL", "info"),
		},
	}

	if cfg.FluentBit.Enabled && cfg.FluentBit.Host == "" {
		log.Println("[config] FLUENTBIT_ENABLED is set without FLUENTBIT_HOST, disabling Fluent Bit")
		cfg.FluentBit.Enabled = false
	}
	if cfg.Search.SessionIdleTTL <= 0 {
		cfg.Search.SessionIdleTTL = 30 * time.Minute
	}
	return cfg, nil
}
