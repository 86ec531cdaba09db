package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/variables"
)

var (
	//go:embed template/intent.txt
	intentSystemPrompt string
	//go:embed template/stage.txt
	stageSystemPrompt string
	//go:embed template/extractor.txt
	extractorSystemPrompt string
	//go:embed template/question.txt
	questionSystemPrompt string
)

const (
	// NoneCollected is shown when no variable has been collected yet.
	NoneCollected = "없음"
	// AllCollected replaces the next-variable line once every key is known.
	AllCollected = "\n✅ 모든 변수가 수집되었습니다."
)

// NextVariableLine is the instruction that steers the question towards key.
func NextVariableLine(key string) string {
	if key == "" {
		return AllCollected
	}
	return "\n⏳ 다음으로 반드시 유도해야 할 항목은: " + key
}

// render formats a system template plus the user utterance through the Eino
// prompt component so prompt callbacks fire for every render.
func render(ctx context.Context, system string, vars map[string]any) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(system),
		schema.UserMessage("{{.Utterance}}"),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, err
	}
	if len(msgs) != 2 || msgs[0] == nil || msgs[1] == nil {
		return nil, fmt.Errorf("expected system and user message, got %d", len(msgs))
	}
	return msgs, nil
}

// RenderIntent builds the intent classification messages.
func RenderIntent(ctx context.Context, utterance string) ([]*schema.Message, error) {
	msgs, err := render(ctx, intentSystemPrompt, map[string]any{"Utterance": utterance})
	if err != nil {
		return nil, fmt.Errorf("intent prompt render: %w", err)
	}
	return msgs, nil
}

// RenderStage builds the stage detection messages.
func RenderStage(ctx context.Context, utterance string) ([]*schema.Message, error) {
	msgs, err := render(ctx, stageSystemPrompt, map[string]any{"Utterance": utterance})
	if err != nil {
		return nil, fmt.Errorf("stage prompt render: %w", err)
	}
	return msgs, nil
}

// RenderExtractor builds the variable extraction messages. lastAsked may be
// empty.
func RenderExtractor(ctx context.Context, cfg model.PromptConfig, sch *variables.Schema, utterance, lastAsked string) ([]*schema.Message, error) {
	keys := sch.Keys()
	vars := map[string]any{
		"KeyCount":       len(keys),
		"Keys":           strings.Join(keys, ", "),
		"EnumText":       EnumText(sch.Categoricals()),
		"ReferenceMonth": cfg.ReferenceMonth,
		"ReferenceYear":  cfg.ReferenceYear,
		"LastAsked":      lastAsked,
		"Utterance":      utterance,
	}
	msgs, err := render(ctx, extractorSystemPrompt, vars)
	if err != nil {
		return nil, fmt.Errorf("extractor prompt render: %w", err)
	}
	return msgs, nil
}

// QuestionInput carries the values substituted into the question prompt.
type QuestionInput struct {
	Utterance string
	Collected map[string]any
	NextKey   string
}

// RenderQuestion builds the follow-up question messages.
func RenderQuestion(ctx context.Context, cfg model.PromptConfig, sch *variables.Schema, in QuestionInput) ([]*schema.Message, error) {
	vars := map[string]any{
		"AssistantName": cfg.AssistantName,
		"PlanningKeys":  strings.Join(sch.StageKeys(variables.Planning), ", "),
		"SellingKeys":   strings.Join(sch.StageKeys(variables.Selling), ", "),
		"Collected":     CollectedList(sch, in.Collected),
		"NextVariable":  NextVariableLine(in.NextKey),
		"Utterance":     in.Utterance,
	}
	msgs, err := render(ctx, questionSystemPrompt, vars)
	if err != nil {
		return nil, fmt.Errorf("question prompt render: %w", err)
	}
	return msgs, nil
}

// EnumText lists categorical vocabularies as "- key:\n  v1, v2" blocks.
func EnumText(cats []variables.Categorical) string {
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("- %s:\n  %s", c.Key, strings.Join(c.Values, ", ")))
	}
	return strings.Join(lines, "\n")
}

// CollectedList names the collected keys in schema order. Keys outside the
// schema are skipped.
func CollectedList(sch *variables.Schema, collected map[string]any) string {
	var names []string
	for _, k := range sch.Keys() {
		if _, ok := collected[k]; ok {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return NoneCollected
	}
	return strings.Join(names, ", ")
}
