package nlu

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/dm-insight-core/server/internal/agent/graph/prompts"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/variables"
)

// QuestionGenerator asks for the first missing variable of a stage.
type QuestionGenerator struct {
	chat   einomodel.BaseChatModel
	schema *variables.Schema
	prompt model.PromptConfig
	opts   []einomodel.Option
}

func NewQuestionGenerator(chat einomodel.BaseChatModel, sch *variables.Schema, cfg model.QuestionModelConfig, promptCfg model.PromptConfig) *QuestionGenerator {
	return &QuestionGenerator{
		chat:   chat,
		schema: sch,
		prompt: promptCfg,
		opts:   callOptions(cfg.Temperature, cfg.MaxTokens),
	}
}

// Next returns the follow-up text and the key it solicits. nextKey is empty
// once every key of the stage is collected; the model is then told so and
// its reply is the acknowledgement.
func (g *QuestionGenerator) Next(ctx context.Context, collected map[string]any, utterance string, stage variables.Stage) (question, nextKey string, err error) {
	nextKey = g.schema.NextMissing(stage, collected)
	msgs, err := prompts.RenderQuestion(ctx, g.prompt, g.schema, prompts.QuestionInput{
		Utterance: utterance,
		Collected: collected,
		NextKey:   nextKey,
	})
	if err != nil {
		return "", "", err
	}
	question, err = generate(ctx, g.chat, "question_generator", msgs, g.opts)
	if err != nil {
		return "", "", err
	}
	if question == "" && nextKey == "" {
		question = strings.TrimSpace(prompts.AllCollected)
	}
	return question, nextKey, nil
}
