package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/llm"
)

type EstimateStage struct {
	Completer llm.Completer
	Logger    *slog.Logger
}

func NewEstimateStage(c llm.Completer, logger *slog.Logger) *EstimateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimateStage{Completer: c, Logger: logger}
}

// Run sends the prompt for text and returns the model's raw reply.
func (s *EstimateStage) Run(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	raw, err := s.Completer.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	common.LoggerFromContext(ctx, s.Logger).Info("pipeline.estimate.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"reply_len", len(raw),
		"llm_ms", time.Since(start).Milliseconds(),
	)
	return raw, nil
}
