package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/dm-insight-core/server/internal/agent/graph/conversations"
	"github.com/dm-insight-core/server/internal/agent/graph/nlu"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/variables"
	"github.com/dm-insight-core/server/internal/analysis"
	"github.com/dm-insight-core/server/internal/search"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

const (
	NodeSessionLoader = "SessionLoader"
	NodeClassifier    = "Classifier"
	NodeExtractor     = "Extractor"
	NodeAnalyzer      = "Analyzer"
	NodeQuestioner    = "Questioner"
	NodeSearcher      = "Searcher"
	NodeAssembler     = "Assembler"
)

// NewSessionLoaderPreHandler resets per-turn state.
func NewSessionLoaderPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		s.Utterance = in.Utterance
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewSessionLoaderNode loads the session and hands the utterance on.
func NewSessionLoaderNode(sm *conversations.SessionManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (string, error) {
		session, err := sm.Begin(ctx, in)
		if err != nil {
			return "", fmt.Errorf("load session: %w", err)
		}
		err = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Session = session
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return in.Utterance, nil
	})
}

// NewClassifierNode runs the intent classifier, then the stage detector.
func NewClassifierNode(ic *nlu.IntentClassifier, sd *nlu.StageDetector) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, utterance string) (model.Turn, error) {
		intentLabel, err := ic.Classify(ctx, utterance)
		if err != nil {
			return model.Turn{}, err
		}
		stageLabel, err := sd.Detect(ctx, utterance)
		if err != nil {
			return model.Turn{}, err
		}
		stage, known := variables.ParseStage(stageLabel)
		if !known {
			logx.Warn().Str("stage_label", stageLabel).Msg("unrecognised stage label, using planning lists")
		}
		return model.Turn{
			Utterance: utterance,
			Classification: model.Classification{
				Intent:      model.ParseIntent(intentLabel),
				IntentLabel: intentLabel,
				Stage:       stage,
				StageLabel:  stageLabel,
			},
		}, nil
	})
}

// NewClassifierPostHandler saves the classification to state.
func NewClassifierPostHandler() func(context.Context, model.Turn, *model.AppState) (model.Turn, error) {
	return func(ctx context.Context, out model.Turn, s *model.AppState) (model.Turn, error) {
		s.Classification = out.Classification
		logx.Debug().
			Str("session_id", sessionID(s)).
			Str("intent", string(out.Classification.Intent)).
			Str("intent_label", out.Classification.IntentLabel).
			Str("stage", string(out.Classification.Stage)).
			Msg("turn classified")
		return out, nil
	}
}

// NewIntentCondition routes collect and analyze turns to their node and every
// other intent straight to the question.
func NewIntentCondition() func(context.Context, model.Turn) (string, error) {
	return func(ctx context.Context, in model.Turn) (string, error) {
		switch in.Classification.Intent {
		case model.IntentCollect:
			return NodeExtractor, nil
		case model.IntentAnalyze:
			return NodeAnalyzer, nil
		default:
			return NodeQuestioner, nil
		}
	}
}

// NewExtractorNode extracts variables and merges them into the session.
func NewExtractorNode(ex *nlu.Extractor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Turn) (model.Turn, error) {
		var fallbackKey string
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.Session != nil {
				fallbackKey = s.Session.LastAskedVariable
			}
			return nil
		})

		values, err := ex.Extract(ctx, in.Utterance, fallbackKey)
		if err != nil {
			return model.Turn{}, err
		}

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			s.Extracted = values
			s.Session.Merge(values)
			logx.Debug().
				Str("session_id", s.Session.ID).
				Int("extracted", len(values)).
				Int("collected", len(s.Session.CollectedVariables)).
				Msg("variables merged")
			return nil
		})
		if err != nil {
			return model.Turn{}, fmt.Errorf("failed to access state: %w", err)
		}
		return in, nil
	})
}

// NewAnalyzerNode routes the utterance to analysis tasks and renders them.
func NewAnalyzerNode(svc *analysis.Service) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Turn) (model.Turn, error) {
		var collected map[string]any
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			collected = s.Session.Clone().CollectedVariables
			return nil
		})
		if err != nil {
			return model.Turn{}, fmt.Errorf("failed to access state: %w", err)
		}

		report := svc.Analyze(ctx, in.Utterance, in.Classification.Stage, collected)

		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Analysis = report
			return nil
		})
		return in, nil
	})
}

// NewQuestionerNode asks for the next missing variable and records which one
// was asked.
func NewQuestionerNode(qg *nlu.QuestionGenerator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Turn) (model.Turn, error) {
		var collected map[string]any
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			collected = s.Session.Clone().CollectedVariables
			return nil
		})
		if err != nil {
			return model.Turn{}, fmt.Errorf("failed to access state: %w", err)
		}

		question, nextKey, err := qg.Next(ctx, collected, in.Utterance, in.Classification.Stage)
		if err != nil {
			return model.Turn{}, err
		}

		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Question = question
			s.NextKey = nextKey
			if nextKey != "" {
				s.Session.LastAskedVariable = nextKey
			}
			return nil
		})
		return in, nil
	})
}

// NewSearchCondition sends search turns through the document search.
func NewSearchCondition() func(context.Context, model.Turn) (string, error) {
	return func(ctx context.Context, in model.Turn) (string, error) {
		if in.Classification.Intent == model.IntentSearch {
			return NodeSearcher, nil
		}
		return NodeAssembler, nil
	}
}

// NewSearcherNode queries the document index. The summary is kept in the
// snapshot and the session; it is not part of the reply text. A nil client
// skips the search.
func NewSearcherNode(sc *search.Client) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Turn) (model.Turn, error) {
		if sc == nil {
			logx.Warn().Msg("document search requested but not configured")
			return in, nil
		}
		summary, err := sc.Query(ctx, in.Utterance)
		if err != nil {
			return model.Turn{}, err
		}
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.SearchSummary = summary
			s.Session.LastSearchSummary = summary
			return nil
		})
		return in, nil
	})
}

// NewAssemblerNode joins the reply, persists the session and builds the
// snapshot returned to the caller. The snapshot carries the session's latest
// search summary, also on turns that did not search.
func NewAssemblerNode(sm *conversations.SessionManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Turn) (*model.TurnSnapshot, error) {
		var (
			session *model.Session
			report  *analysis.Report
			reply   string
			summary string
			cost    float64
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			session, report, summary, cost = s.Session, s.Analysis, s.SearchSummary, s.TotalCostUSD
			if summary == "" {
				summary = s.Session.LastSearchSummary
			}
			var section string
			if report != nil {
				section = report.Section
			}
			reply = conversations.JoinReply(section, s.Question)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if err := sm.Commit(ctx, session, in.Utterance, reply); err != nil {
			return nil, err
		}

		snap := &model.TurnSnapshot{
			SessionID:       session.ID,
			ChatHistory:     append([]model.Exchange{}, session.History...),
			ResponseText:    reply,
			StructuredData:  session.Clone().CollectedVariables,
			AnalysisResults: report.ByTask(),
			Intent:          in.Classification.IntentLabel,
			Stage:           in.Classification.StageLabel,
		}
		if summary != "" {
			snap.RelatedDocu = &summary
		}

		logx.Info().
			Str("session_id", session.ID).
			Str("intent", string(in.Classification.Intent)).
			Str("stage", string(in.Classification.Stage)).
			Int("analyses", len(snap.AnalysisResults)).
			Float64("total_cost_usd", cost).
			Msg("turn assembled")
		return snap, nil
	})
}

func sessionID(s *model.AppState) string {
	if s == nil || s.Session == nil {
		return ""
	}
	return s.Session.ID
}
