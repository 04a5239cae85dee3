package providers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/visibility"
)

// Instrumented records call counts and latency for the wrapped provider.
type Instrumented struct {
	next   visibility.TextProvider
	logger *zap.Logger
}

func Instrument(next visibility.TextProvider, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{next: next, logger: logger}
}

func (i *Instrumented) Query(ctx context.Context, prompt string, platform visibility.Platform, company string) (string, error) {
	start := time.Now()
	answer, err := i.next.Query(ctx, prompt, platform, company)
	elapsed := time.Since(start)

	metrics.ProviderDuration.WithLabelValues(string(platform)).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(string(platform), "error").Inc()
		i.logger.Warn("provider query failed",
			zap.String("platform", string(platform)),
			zap.String("company", company),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	metrics.ProviderCalls.WithLabelValues(string(platform), "success").Inc()
	i.logger.Debug("provider query",
		zap.String("platform", string(platform)),
		zap.Int("answer_length", len(answer)),
		zap.Duration("duration", elapsed),
	)
	return answer, nil
}
