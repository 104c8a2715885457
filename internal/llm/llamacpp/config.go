package llamacpp

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for a llama.cpp server (`llama-server`) completion endpoint.
type Config struct {
	BaseURL     string        // e.g. http://127.0.0.1:8080
	APIKey      string        // optional, sent as a bearer token
	MaxTokens   int           // n_predict, default 256
	Temperature float32       // default 0.2
	TopP        float32       // default 0.9
	Stop        []string      // default ["###"]
	Timeout     time.Duration // http client timeout
	// LoadRetries is how many times a 503 (model still loading) is retried, default 3.
	LoadRetries int
	RetryDelay  time.Duration // default 2s
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if cfg.TopP <= 0 {
		cfg.TopP = 0.9
	}
	if len(cfg.Stop) == 0 {
		cfg.Stop = []string{"###"}
	}
	if cfg.LoadRetries <= 0 {
		cfg.LoadRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
