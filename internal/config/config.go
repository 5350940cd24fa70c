package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDemo       Mode = "demo"
	ModeProduction Mode = "production"
)

// Keys shipped in the sample .env are treated as absent.
const placeholderKeySuffix = "_here"

type Config struct {
	Mode      Mode
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Security  SecurityConfig
	Providers ProvidersConfig
	Simulator SimulatorConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxAudioBytes   int64
}

type DatabaseConfig struct {
	Path string
	Seed bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

type ProvidersConfig struct {
	Timeout time.Duration

	STTAPIKey  string
	STTBaseURL string
	STTModel   string

	GeminiAPIKey string
	GeminiModel  string

	MurfAPIKey string
	MurfURL    string
	MurfVoice  string
}

type SimulatorConfig struct {
	Enabled  bool
	Interval time.Duration
	Delay    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file, relying on environment", "error", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 5000),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxAudioBytes:   int64(getEnvInt("MAX_AUDIO_BYTES", 10<<20)),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DATABASE_PATH", "bank.db"),
			Seed: getEnvBool("DATABASE_SEED", true),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5000"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Providers: ProvidersConfig{
			Timeout:      getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
			STTAPIKey:    getEnvSecret("STT_API_KEY"),
			STTBaseURL:   getEnvString("STT_BASE_URL", "https://api.openai.com/v1"),
			STTModel:     getEnvString("STT_MODEL", "whisper-1"),
			GeminiAPIKey: getEnvSecret("GEMINI_API_KEY"),
			GeminiModel:  getEnvString("GEMINI_MODEL", "gemini-1.5-flash"),
			MurfAPIKey:   getEnvSecret("MURF_API_KEY"),
			MurfURL:      getEnvString("MURF_URL", "https://api.murf.ai/v1/speech/generate"),
			MurfVoice:    getEnvString("MURF_VOICE", "en-US-falcon"),
		},
		Simulator: SimulatorConfig{
			Enabled:  getEnvBool("SIMULATOR_ENABLED", true),
			Interval: getEnvDuration("SIMULATOR_INTERVAL", 10*time.Second),
			Delay:    getEnvDuration("SIMULATOR_DELAY", 2*time.Second),
		},
	}
	cfg.Mode = cfg.Providers.mode()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// mode is decided once from the presence of the speech-to-text key.
func (p ProvidersConfig) mode() Mode {
	if p.STTAPIKey == "" {
		return ModeDemo
	}
	return ModeProduction
}

func (c *Config) Demo() bool {
	return c.Mode != ModeProduction
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxAudioBytes <= 0 {
		return fmt.Errorf("max audio bytes must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}

	if c.Mode == ModeProduction {
		if c.Providers.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when STT_API_KEY is set")
		}
	}

	if c.Simulator.Enabled && c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator interval must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSecret(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if strings.HasSuffix(value, placeholderKeySuffix) {
		return ""
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
