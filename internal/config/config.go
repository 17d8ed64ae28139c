// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Engines EnginesConfig
	Cost    CostConfig
	Notify  NotifyConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         string        // Server port (default: 3003)
	CORSOrigins  []string      // Allowed origins, comma list or JSON array in env
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 0, generation and export responses can be slow)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)

	// GeneratePerMinute bounds generation requests per client IP. 0 disables the limit.
	GeneratePerMinute int
}

// StorageConfig holds project storage configuration.
type StorageConfig struct {
	// SlidesBasePath is the root holding one directory per project slug.
	SlidesBasePath string
	// WatchOutlines enables re-indexing when outline.yml files change outside the server.
	WatchOutlines bool
}

// EnginesConfig holds image generation provider configuration.
type EnginesConfig struct {
	Default string

	GeminiAPIKey string
	GeminiModel  string

	ArkAPIKey  string
	ArkBaseURL string
	ArkModel   string

	NanoAPIKey    string
	NanoBaseURL   string
	NanoModel     string
	NanoImageSize string

	// RateLimit is the sustained outbound requests per second allowed per engine.
	RateLimit float64
	RateBurst int
}

// CostConfig holds per-unit prices used by the cost ledger.
type CostConfig struct {
	PerStyleImage float64
	PerSlideImage float64
}

// NotifyConfig holds notification fan-out configuration.
type NotifyConfig struct {
	// RedisURL enables cross-process event fan-out when set.
	RedisURL string
}

// Engine names accepted by DEFAULT_ENGINE.
const (
	EngineGemini     = "gemini"
	EngineVolcengine = "volcengine"
	EngineNanoBanana = "nano_banana"
)

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("genslides", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	host := fs.String("host", "", "Bind address (default: 0.0.0.0)")
	port := fs.String("port", "", "Server port (default: 3003)")
	corsOrigins := fs.String("cors-origins", "", "Allowed CORS origins")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	slidesPath := fs.String("slides-path", "", "Base path for project storage (default: ./slides)")
	watchOutlines := fs.String("watch-outlines", "", "Watch outline.yml files for external edits (default: true)")

	defaultEngine := fs.String("default-engine", "", "Image engine used when a project has none (default: volcengine)")
	redisURL := fs.String("redis-url", "", "Redis URL for cross-process notifications")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are expected outside development.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "GENSLIDES_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:        getConfigValue(*host, "HOST", "0.0.0.0"),
			Port:        getConfigValue(*port, "PORT", "3003"),
			CORSOrigins: parseOrigins(getConfigValue(*corsOrigins, "CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

			GeneratePerMinute: getIntConfigValue("", "GENERATE_RATE_PER_MINUTE", 30),
		},
		Storage: StorageConfig{
			SlidesBasePath: getConfigValue(*slidesPath, "SLIDES_BASE_PATH", "./slides"),
			WatchOutlines:  getBoolConfigValue(*watchOutlines, "WATCH_OUTLINES", true),
		},
		Engines: EnginesConfig{
			Default:       getConfigValue(*defaultEngine, "DEFAULT_ENGINE", EngineVolcengine),
			GeminiAPIKey:  getConfigValue("", "GEMINI_API_KEY", ""),
			GeminiModel:   getConfigValue("", "GEMINI_MODEL", "gemini-3-pro-image-preview"),
			ArkAPIKey:     getConfigValue("", "ARK_API_KEY", ""),
			ArkBaseURL:    getConfigValue("", "ARK_BASE_URL", "https://ark.cn-beijing.volces.com"),
			ArkModel:      getConfigValue("", "ARK_MODEL", "doubao-seedream-4-5-251128"),
			NanoAPIKey:    getConfigValue("", "NANO_API_KEY", ""),
			NanoBaseURL:   strings.TrimRight(strings.TrimSpace(getConfigValue("", "NANO_BASE_URL", "https://api.mmw.ink")), "/"),
			NanoModel:     getConfigValue("", "NANO_MODEL", "[A]gemini-3-pro-image-preview"),
			NanoImageSize: strings.ToUpper(strings.TrimSpace(getConfigValue("", "NANO_IMAGE_SIZE", "2K"))),
			RateLimit:     getFloatConfigValue("", "ENGINE_RATE_LIMIT", 2),
			RateBurst:     getIntConfigValue("", "ENGINE_RATE_BURST", 4),
		},
		Cost: CostConfig{
			PerStyleImage: getFloatConfigValue("", "COST_PER_STYLE_IMAGE", 0.02),
			PerSlideImage: getFloatConfigValue("", "COST_PER_SLIDE_IMAGE", 0.02),
		},
		Notify: NotifyConfig{
			RedisURL: getConfigValue(*redisURL, "REDIS_URL", ""),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	expanded, err := expandPath(cfg.Storage.SlidesBasePath, "")
	if err != nil {
		return nil, fmt.Errorf("expand slides path: %w", err)
	}
	cfg.Storage.SlidesBasePath = expanded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	if c.Server.GeneratePerMinute < 0 {
		return errors.New("generate rate per minute cannot be negative")
	}

	if c.Storage.SlidesBasePath == "" {
		return errors.New("slides base path cannot be empty")
	}

	switch c.Engines.Default {
	case EngineGemini, EngineVolcengine, EngineNanoBanana:
	default:
		return fmt.Errorf("invalid default engine: %s (must be gemini, volcengine, or nano_banana)", c.Engines.Default)
	}

	if c.Cost.PerStyleImage < 0 || c.Cost.PerSlideImage < 0 {
		return errors.New("cost per image cannot be negative")
	}

	if c.Engines.RateLimit <= 0 || c.Engines.RateBurst <= 0 {
		return errors.New("engine rate limit and burst must be positive")
	}

	if c.App.Environment == "production" && !c.HasAnyEngineKey() {
		return errors.New("at least one of GEMINI_API_KEY, ARK_API_KEY, NANO_API_KEY is required in production")
	}

	return nil
}

// HasAnyEngineKey reports whether any image provider has credentials.
func (c *Config) HasAnyEngineKey() bool {
	return c.Engines.GeminiAPIKey != "" || c.Engines.ArkAPIKey != "" || c.Engines.NanoAPIKey != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// parseOrigins accepts either a comma separated list or a JSON array.
func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	return d, nil
}
