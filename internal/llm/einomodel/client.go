// Package einomodel implements llm.Completer on top of an eino chat model,
// pointed at any OpenAI-compatible endpoint (OpenRouter by default).
// Attribution headers ride on the HTTP transport, as the openrouter client sends them.
package einomodel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/joseph-ayodele/syncora/internal/common"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Referer     string // HTTP-Referer
	Title       string // X-Title
}

// generator is the slice of model.BaseChatModel we need.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type Client struct {
	model     generator
	modelName string
	logger    *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	temp := cfg.Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Temperature: &temp,
		// the model ignores Timeout once HTTPClient is set
		HTTPClient: newHTTPClient(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("init eino chat model: %w", err)
	}
	return newWithModel(chatModel, cfg.Model, logger), nil
}

func newHTTPClient(cfg Config) *http.Client {
	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
}

// headerTransport adds fixed headers without mutating the caller's request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}

func newWithModel(m generator, name string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{model: m, modelName: name, logger: logger}
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	msgs := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	}
	resp, err := c.model.Generate(ctx, msgs)
	if err != nil {
		c.logger.Error("llm.eino.generate_error", "model", c.modelName, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", common.ErrUpstream, ctx.Err())
		}
		return "", fmt.Errorf("%w: eino generate: %w", common.ErrUpstream, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: eino returned no message", common.ErrUpstream)
	}
	c.logger.Info("llm.eino.ok", "model", c.modelName, "reply_len", len(resp.Content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return resp.Content, nil
}
