package openrouter

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemma-3-27b-it"
)

// Config for the OpenRouter client.
type Config struct {
	APIKey      string
	BaseURL     string        // default https://openrouter.ai/api/v1
	Model       string        // default google/gemma-3-27b-it
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout, default 30s
	Referer     string        // optional HTTP-Referer attribution header
	Title       string        // optional X-Title attribution header
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
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
