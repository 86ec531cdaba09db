package nlu

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/dm-insight-core/server/internal/agent/graph/parsers"
	"github.com/dm-insight-core/server/internal/agent/graph/prompts"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/variables"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// Extractor pulls schema variables out of free text.
type Extractor struct {
	chat   einomodel.BaseChatModel
	schema *variables.Schema
	prompt model.PromptConfig
	opts   []einomodel.Option
}

func NewExtractor(chat einomodel.BaseChatModel, sch *variables.Schema, cfg model.ExtractorModelConfig, promptCfg model.PromptConfig) *Extractor {
	return &Extractor{
		chat:   chat,
		schema: sch,
		prompt: promptCfg,
		opts:   callOptions(cfg.Temperature, cfg.MaxTokens),
	}
}

// Extract returns the recognised variables. An unparsable answer yields an
// empty map. When the model finds nothing and fallbackKey is set, the first
// number in the utterance is attributed to fallbackKey.
func (e *Extractor) Extract(ctx context.Context, utterance, fallbackKey string) (map[string]any, error) {
	msgs, err := prompts.RenderExtractor(ctx, e.prompt, e.schema, utterance, fallbackKey)
	if err != nil {
		return nil, err
	}
	content, err := generate(ctx, e.chat, "variable_extractor", msgs, e.opts)
	if err != nil {
		return nil, err
	}

	parsed, perr := parsers.ParseExtraction(content, e.schema)
	if perr != nil {
		logx.Warn().Err(perr).Str("component", "variable_extractor").Msg("unparsable extraction, using empty result")
		return map[string]any{}, nil
	}
	if len(parsed.Dropped) > 0 {
		logx.Debug().Strs("keys", parsed.Dropped).Msg("dropped keys outside the variable schema")
	}

	if parsed.Empty() && fallbackKey != "" && e.schema.Allowed(fallbackKey) {
		if n, ok := parsers.FallbackNumber(utterance); ok {
			logx.Debug().Str("key", fallbackKey).Int("value", n).Msg("attributed bare number to last asked variable")
			return map[string]any{fallbackKey: n}, nil
		}
	}
	return parsed.Values, nil
}
