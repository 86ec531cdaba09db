package nlu

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/dm-insight-core/server/internal/agent/graph/prompts"
	"github.com/dm-insight-core/server/internal/agent/model"
)

// IntentClassifier labels an utterance as 수집, 검색 or 분석. The label is
// returned as produced; ParseIntent decides what it means.
type IntentClassifier struct {
	chat einomodel.BaseChatModel
	opts []einomodel.Option
}

func NewIntentClassifier(chat einomodel.BaseChatModel, cfg model.ClassifierModelConfig) *IntentClassifier {
	return &IntentClassifier{chat: chat, opts: callOptions(cfg.Temperature, cfg.MaxTokens)}
}

func (c *IntentClassifier) Classify(ctx context.Context, utterance string) (string, error) {
	msgs, err := prompts.RenderIntent(ctx, utterance)
	if err != nil {
		return "", err
	}
	return generate(ctx, c.chat, "intent_classifier", msgs, c.opts)
}
