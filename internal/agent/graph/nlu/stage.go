package nlu

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/dm-insight-core/server/internal/agent/graph/prompts"
	"github.com/dm-insight-core/server/internal/agent/model"
)

// StageDetector labels an utterance as 기획 or 판매.
type StageDetector struct {
	chat einomodel.BaseChatModel
	opts []einomodel.Option
}

func NewStageDetector(chat einomodel.BaseChatModel, cfg model.ClassifierModelConfig) *StageDetector {
	return &StageDetector{chat: chat, opts: callOptions(cfg.Temperature, cfg.MaxTokens)}
}

func (d *StageDetector) Detect(ctx context.Context, utterance string) (string, error) {
	msgs, err := prompts.RenderStage(ctx, utterance)
	if err != nil {
		return "", err
	}
	return generate(ctx, d.chat, "stage_detector", msgs, d.opts)
}
