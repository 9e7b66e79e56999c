package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/llm"
	"github.com/joseph-ayodele/syncora/internal/llm/provider"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <textfile> [custom instructions...]")
		os.Exit(2)
	}
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENROUTER_API_KEY env var is required")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read text file", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
	instructions := strings.Join(os.Args[2:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.RequestTimeout)
	defer cancel()

	completer, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("init llm", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	system, user := llm.BuildPrompt(string(text), instructions)
	raw, err := completer.Complete(ctx, system, user)
	if err != nil {
		logger.Error("estimate failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}
	minutes, err := llm.ParseMinutes(raw)
	if err != nil {
		logger.Error("unusable estimate", "raw", raw, "error", err)
		os.Exit(1)
	}
	logger.Info("estimate OK", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "duration_ms", time.Since(start).Milliseconds())
	fmt.Println(minutes)
}
