package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	logx "github.com/deckforge/server/pkg/logger"
)

// callSpec describes one retried, timeout-bound model request.
type callSpec struct {
	Stage    string
	Messages []*schema.Message
	Timeout  time.Duration
	Attempts int
}

// generate asks the model up to call.Attempts times, each attempt bounded by
// call.Timeout, and returns the first response parse accepts. Usage of every
// answered call is added to the graph state. A cancelled or expired parent
// context is returned as is; every other failure is returned after the last
// attempt so the caller can fall back.
func generate[T any](ctx context.Context, cm *ChatModel, call callSpec, parse func(string) (T, error)) (T, error) {
	var zero T
	attempts := max(call.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		callCtx, cancel := context.WithTimeout(ctx, call.Timeout)
		started := time.Now()
		out, err := cm.Model.Generate(callCtx, call.Messages)
		cancel()

		if out != nil {
			recordUsage(ctx, cm, call.Stage, out)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			lastErr = errx.WrapLLM(err)
			logx.Warn().
				Str("stage", call.Stage).
				Str("model", cm.ModelName).
				Int("attempt", attempt).
				Dur("elapsed", time.Since(started)).
				Err(err).
				Msg("Model call failed")
			continue
		}
		if out == nil || strings.TrimSpace(out.Content) == "" {
			lastErr = errx.ErrEmptyResponse
			logx.Warn().Str("stage", call.Stage).Int("attempt", attempt).Msg("Model returned empty content")
			continue
		}

		v, err := parse(out.Content)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", call.Stage, err)
			logx.Warn().Str("stage", call.Stage).Int("attempt", attempt).Err(err).Msg("Model output unusable")
			continue
		}
		return v, nil
	}
	return zero, lastErr
}

// recordUsage computes the cost of one response and accumulates it into the
// graph state.
func recordUsage(ctx context.Context, cm *ChatModel, stage string, out *schema.Message) {
	var usage *schema.TokenUsage
	if out.ResponseMeta != nil {
		usage = out.ResponseMeta.Usage
	}
	_, _, totalC := model.ComputeCost(usage, model.ResolvePricing(cm.ModelName))

	err := compose.ProcessState(ctx, func(_ context.Context, state *model.DeckState) error {
		state.AddUsage(usage, totalC)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("stage", stage).Msg("Failed to record usage")
		return
	}

	if usage != nil {
		logx.Debug().
			Str("stage", stage).
			Str("model", cm.ModelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
	}
}
