package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/dm-insight-core/server/internal/agent/graph/conversations"
	"github.com/dm-insight-core/server/internal/agent/graph/nlu"
	"github.com/dm-insight-core/server/internal/agent/graph/nodes"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/variables"
	"github.com/dm-insight-core/server/internal/analysis"
	"github.com/dm-insight-core/server/internal/search"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// maxRunSteps bounds one turn; the longest path visits six nodes.
const maxRunSteps = 20

// Config holds everything needed to compose the turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models and the document search client.
type Config struct {
	Gemini      model.GeminiConfig
	Classifier  model.ClassifierModelConfig
	Extractor   model.ExtractorModelConfig
	Question    model.QuestionModelConfig
	Prompt      model.PromptConfig
	Search      search.Config
	Schema      *variables.Schema
	Analysis    *analysis.Service
	SessionRepo model.SessionRepository
}

// GraphConfig holds the components the graph nodes call.
type GraphConfig struct {
	Sessions  *conversations.SessionManager
	Intent    *nlu.IntentClassifier
	Stage     *nlu.StageDetector
	Extractor *nlu.Extractor
	Questions *nlu.QuestionGenerator
	Analysis  *analysis.Service
	// Search may be nil; search turns then skip the lookup.
	Search *search.Client
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *model.TurnSnapshot]
}

// BuildResponseGraph creates the Gemini client and models, builds the graph
// and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}
	if cfg.Analysis == nil {
		return nil, fmt.Errorf("analysis service is nil")
	}
	sch := cfg.Schema
	if sch == nil {
		sch = variables.Default()
	}

	client, err := nodes.NewGenaiClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	cms, err := nodes.NewChatModels(ctx, client, nodes.ChatModelConfig{
		Classifier: cfg.Classifier,
		Extractor:  cfg.Extractor,
		Question:   cfg.Question,
	})
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(ctx, &GraphConfig{
		Sessions:  conversations.NewSessionManager(cfg.SessionRepo),
		Intent:    nlu.NewIntentClassifier(cms.Classifier, cfg.Classifier),
		Stage:     nlu.NewStageDetector(cms.Classifier, cfg.Classifier),
		Extractor: nlu.NewExtractor(cms.Extractor, sch, cfg.Extractor, cfg.Prompt),
		Questions: nlu.NewQuestionGenerator(cms.Question, sch, cfg.Question, cfg.Prompt),
		Analysis:  cfg.Analysis,
		Search:    search.New(client.Models, cfg.Search),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return runner, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.TurnSnapshot], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session manager is nil")
	}
	if config.Intent == nil || config.Stage == nil || config.Extractor == nil || config.Questions == nil {
		return nil, fmt.Errorf("nlu components are not properly initialized")
	}
	if config.Analysis == nil {
		return nil, fmt.Errorf("analysis service is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.TurnSnapshot](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []struct {
		name string
		add  func() error
	}{
		{nodes.NodeSessionLoader, func() error {
			return b.graph.AddLambdaNode(nodes.NodeSessionLoader,
				nodes.NewSessionLoaderNode(b.config.Sessions),
				compose.WithStatePreHandler(nodes.NewSessionLoaderPreHandler()),
			)
		}},
		{nodes.NodeClassifier, func() error {
			return b.graph.AddLambdaNode(nodes.NodeClassifier,
				nodes.NewClassifierNode(b.config.Intent, b.config.Stage),
				compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
			)
		}},
		{nodes.NodeExtractor, func() error {
			return b.graph.AddLambdaNode(nodes.NodeExtractor, nodes.NewExtractorNode(b.config.Extractor))
		}},
		{nodes.NodeAnalyzer, func() error {
			return b.graph.AddLambdaNode(nodes.NodeAnalyzer, nodes.NewAnalyzerNode(b.config.Analysis))
		}},
		{nodes.NodeQuestioner, func() error {
			return b.graph.AddLambdaNode(nodes.NodeQuestioner, nodes.NewQuestionerNode(b.config.Questions))
		}},
		{nodes.NodeSearcher, func() error {
			return b.graph.AddLambdaNode(nodes.NodeSearcher, nodes.NewSearcherNode(b.config.Search))
		}},
		{nodes.NodeAssembler, func() error {
			return b.graph.AddLambdaNode(nodes.NodeAssembler, nodes.NewAssemblerNode(b.config.Sessions))
		}},
	}
	for _, s := range steps {
		if err := s.add(); err != nil {
			logx.Error().Err(err).Str("node", s.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.name, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeSessionLoader},
		{nodes.NodeSessionLoader, nodes.NodeClassifier},
		{nodes.NodeExtractor, nodes.NodeQuestioner},
		{nodes.NodeAnalyzer, nodes.NodeQuestioner},
		{nodes.NodeSearcher, nodes.NodeAssembler},
		{nodes.NodeAssembler, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(),
		map[string]bool{
			nodes.NodeExtractor:  true,
			nodes.NodeAnalyzer:   true,
			nodes.NodeQuestioner: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassifier, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	searchBranch := compose.NewGraphBranch(
		nodes.NewSearchCondition(),
		map[string]bool{
			nodes.NodeSearcher:  true,
			nodes.NodeAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeQuestioner, searchBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding search branch")
		return fmt.Errorf("error adding search branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnSnapshot], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("turn"),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
