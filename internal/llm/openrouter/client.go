package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements llm.Completer over OpenRouter's chat/completions endpoint.
// Every failure is reported as common.ErrUpstream; there is no retry.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"user_len", len(user),
	)

	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"HTTP-Referer":  c.cfg.Referer,
		"X-Title":       c.cfg.Title,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.complete.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", common.ErrUpstream, ctx.Err())
		}
		return "", fmt.Errorf("%w: openrouter: %w", common.ErrUpstream, err)
	}

	if err := common.ValidateJSON(llm.ChatCompletionSchema, raw); err != nil {
		c.log.Error("llm.complete.malformed_response",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: openrouter returned a malformed response: %w", common.ErrUpstream, err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.complete.decode_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: decode openrouter response: %w", common.ErrUpstream, err)
	}

	content := cc.Choices[0].Message.Content
	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"reply_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
