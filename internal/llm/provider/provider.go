// Package provider picks the estimate backend named in configuration.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/llm"
	"github.com/joseph-ayodele/syncora/internal/llm/einomodel"
	"github.com/joseph-ayodele/syncora/internal/llm/openrouter"
)

const (
	OpenRouter = "openrouter"
	Eino       = "eino"
)

// New returns the Completer for cfg.Provider. Both backends speak to the same
// OpenAI-compatible endpoint.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", OpenRouter:
		return openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Referer:     cfg.Referer,
			Title:       cfg.Title,
		}, logger), nil
	case Eino:
		return einomodel.New(ctx, einomodel.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Referer:     cfg.Referer,
			Title:       cfg.Title,
		}, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown llm provider "+cfg.Provider, common.ErrInvalidInput)
	}
}
