package assistant

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/metrics"
	"github.com/spigell/lendmatch/internal/store"
)

type fallbackExtractor struct {
	primary   Extractor
	secondary Extractor
	logger    *zap.Logger
}

// ExtractorWithFallback uses secondary whenever primary fails. A nil primary means secondary
// is used directly.
func ExtractorWithFallback(primary, secondary Extractor, logger *zap.Logger) Extractor {
	if primary == nil {
		return secondary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackExtractor{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallbackExtractor) Extract(ctx context.Context, history []store.Message) (matching.Profile, error) {
	profile, err := f.primary.Extract(ctx, history)
	if err == nil {
		return profile, nil
	}

	if ctx.Err() != nil {
		return matching.Profile{}, ctx.Err()
	}

	f.logger.Warn("falling back to secondary extractor", zap.Error(err))
	metrics.AssistantFallbacks.WithLabelValues("extract").Inc()
	return f.secondary.Extract(ctx, history)
}

type fallbackResponder struct {
	primary   Responder
	secondary Responder
	logger    *zap.Logger
}

// ResponderWithFallback uses secondary whenever primary fails. A nil primary means secondary
// is used directly.
func ResponderWithFallback(primary, secondary Responder, logger *zap.Logger) Responder {
	if primary == nil {
		return secondary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackResponder{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallbackResponder) Reply(ctx context.Context, conv Conversation) (string, error) {
	reply, err := f.primary.Reply(ctx, conv)
	if err == nil {
		return reply, nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	f.logger.Warn("falling back to secondary responder", zap.Error(err))
	metrics.AssistantFallbacks.WithLabelValues("reply").Inc()
	return f.secondary.Reply(ctx, conv)
}
