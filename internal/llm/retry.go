package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	maxRetries  = 3
	backoffMult = 2
)

// initialBackoff is a var so tests can shorten it.
var initialBackoff = 1 * time.Second

var tracer = otel.Tracer("creatorpilot/llm")

// callFunc performs one provider call and returns the raw text.
type callFunc func(ctx context.Context) (string, error)

// generate runs call with retries inside an llm.generate span.
func generate(ctx context.Context, provider, model string, req Request, call callFunc) Result {
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	text, attempts, err := withRetry(ctx, provider, call)
	span.SetAttributes(attribute.Int("llm.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "generation failed",
			"provider", provider,
			"model", model,
			"attempts", attempts,
			"error", err,
		)
		return Result{Err: err}
	}

	slog.DebugContext(ctx, "generation complete",
		"provider", provider,
		"model", model,
		"attempts", attempts,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Text: text}
}

func withRetry(ctx context.Context, provider string, call callFunc) (string, int, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", attempt - 1, ctx.Err()
		}

		text, err := call(ctx)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%s API error (attempt %d/%d): %w", provider, attempt, maxRetries, err)
		case strings.TrimSpace(text) == "":
			lastErr = fmt.Errorf("%w from %s (attempt %d/%d)", ErrEmptyResponse, provider, attempt, maxRetries)
		default:
			return text, attempt, nil
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return "", attempt, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= time.Duration(backoffMult)
		}
	}

	return "", maxRetries, lastErr
}
