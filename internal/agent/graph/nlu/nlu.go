// Package nlu holds the single-shot model calls of a turn: intent
// classification, stage detection, variable extraction and follow-up
// question generation.
package nlu

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/dm-insight-core/server/internal/core/error"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// callOptions turns configured sampling values into per-call options.
// maxTokens <= 0 leaves the model default in place.
func callOptions(temperature float32, maxTokens int) []einomodel.Option {
	opts := []einomodel.Option{einomodel.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(maxTokens))
	}
	return opts
}

// generate runs one model call and returns the trimmed reply text. Failures
// are upstream errors and are not recovered here.
func generate(ctx context.Context, chat einomodel.BaseChatModel, component string, msgs []*schema.Message, opts []einomodel.Option) (string, error) {
	if chat == nil {
		return "", errx.WrapUpstream(fmt.Errorf("%s: chat model is nil", component))
	}
	out, err := chat.Generate(ctx, msgs, opts...)
	if err != nil {
		logx.Error().Err(err).Str("component", component).Msg("model call failed")
		return "", errx.WrapUpstream(fmt.Errorf("%s: %w", component, err))
	}
	if out == nil {
		return "", nil
	}
	return strings.TrimSpace(out.Content), nil
}
