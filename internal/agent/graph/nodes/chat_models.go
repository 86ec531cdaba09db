package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/dm-insight-core/server/internal/agent/model"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Classifier model.ClassifierModelConfig
	Extractor  model.ExtractorModelConfig
	Question   model.QuestionModelConfig
}

// ChatModels holds the three chat models used by a turn. Each one reports its
// token cost into the graph state.
type ChatModels struct {
	Classifier einomodel.BaseChatModel
	Extractor  einomodel.BaseChatModel
	Question   einomodel.BaseChatModel
}

// NewGenaiClient creates the shared client for the Gemini Developer API or
// Vertex AI.
func NewGenaiClient(ctx context.Context, cfg model.GeminiConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if strings.EqualFold(cfg.Backend, "vertex") {
		clientCfg = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.Project,
			Location: cfg.Location,
		}
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Str("backend", cfg.Backend).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the classifier, extractor and question models on one
// client.
func NewChatModels(ctx context.Context, client *genai.Client, config ChatModelConfig) (*ChatModels, error) {
	classifier, err := newGeminiModel(ctx, client, config.Classifier.Model, config.Classifier.Temperature, config.Classifier.MaxTokens, config.Classifier.ThinkingBudget)
	if err != nil {
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}
	extractor, err := newGeminiModel(ctx, client, config.Extractor.Model, config.Extractor.Temperature, config.Extractor.MaxTokens, config.Extractor.ThinkingBudget)
	if err != nil {
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}
	question, err := newGeminiModel(ctx, client, config.Question.Model, config.Question.Temperature, config.Question.MaxTokens, config.Question.ThinkingBudget)
	if err != nil {
		return nil, fmt.Errorf("error creating question model: %w", err)
	}

	return &ChatModels{
		Classifier: Metered(classifier, config.Classifier.Model),
		Extractor:  Metered(extractor, config.Extractor.Model),
		Question:   Metered(question, config.Question.Model),
	}, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, name string, temperature float32, maxTokens int, thinkingBudget int32) (*gemini.ChatModel, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(thinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Str("model", name).Msg("Error creating chat model")
		return nil, err
	}
	return cm, nil
}

// meteredModel prices every response and accumulates the cost in AppState
// when called inside the graph.
type meteredModel struct {
	inner einomodel.BaseChatModel
	name  string
}

// Metered wraps chat so its token usage is charged to the running turn.
func Metered(chat einomodel.BaseChatModel, name string) einomodel.BaseChatModel {
	return &meteredModel{inner: chat, name: name}
}

func (m *meteredModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	m.charge(ctx, out)
	return out, nil
}

func (m *meteredModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, input, opts...)
}

func (m *meteredModel) charge(ctx context.Context, out *schema.Message) {
	cost := model.CallCost(m.name, out)
	if cost == 0 {
		return
	}
	usage := out.ResponseMeta.Usage
	// outside a graph run there is no state to charge
	_ = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
		s.TotalCostUSD += cost
		return nil
	})
	logx.Debug().
		Str("model", m.name).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("total_cost_usd", cost).
		Msg("LLM usage")
}
