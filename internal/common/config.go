package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Watch    WatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr           string
	HealthGRPCAddr     string
	CORSOrigins        []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxUploadMB        int
	ShutdownTimeout    time.Duration
}

// StorageConfig describes where uploaded receipt images live.
type StorageConfig struct {
	UploadDir string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractBin        string
	TesseractLang       string
	TessdataDir         string
	PSM                 int
	EnableTSVConfidence bool
	FallbackText        string
	Timeout             time.Duration
}

// LLMConfig holds LLM-related configuration. An empty URL runs the pipeline in mock mode.
type LLMConfig struct {
	URL         string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Timeout     time.Duration
	LoadRetries int
	DebugLog    string
}

// WatchConfig enables the drop-folder watcher when Dir is set.
type WatchConfig struct {
	Dir      string
	Debounce time.Duration
	Workers  int
}

// LoadConfig loads configuration from environment variables, after merging an optional .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "receipts.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
			HealthGRPCAddr:     os.Getenv("HEALTH_GRPC_ADDR"),
			CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
			RateLimitPerSecond: getEnvAsFloat64("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 20),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		},
		OCR: OCRConfig{
			TesseractBin:        getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			PSM:                 getEnvAsInt("OCR_PSM", 0),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", false),
			FallbackText:        getEnv("OCR_FALLBACK_TEXT", "MOCK RECEIPT TEXT"),
			Timeout:             getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			URL:         getEnv("LLM_URL", ""),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 256),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			TopP:        getEnvAsFloat32("LLM_TOP_P", 0.9),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			LoadRetries: getEnvAsInt("LLM_LOAD_RETRIES", 3),
			DebugLog:    getEnv("LLM_DEBUG_LOG", ""),
		},
		Watch: WatchConfig{
			Dir:      getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			Workers:  getEnvAsInt("WATCH_WORKERS", 2),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// IsPostgres reports whether the DSN points at a Postgres server rather than a SQLite file.
func (c DatabaseConfig) IsPostgres() bool {
	dsn := strings.ToLower(c.DSN)
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// MockLLM reports whether completions are replaced by the built-in mock fields.
func (c LLMConfig) MockLLM() bool {
	return strings.TrimSpace(c.URL) == ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.UploadDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.LLM.MaxTokens <= 0 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_TOKENS must be positive", ErrInvalidInput)
	}
	return nil
}
