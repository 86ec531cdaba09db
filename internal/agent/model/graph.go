package model

import (
	"strings"

	"github.com/dm-insight-core/server/internal/agent/variables"
	"github.com/dm-insight-core/server/internal/analysis"
)

// Intent is the classified purpose of a turn.
type Intent string

const (
	IntentCollect Intent = "collect"
	IntentSearch  Intent = "search"
	IntentAnalyze Intent = "analyze"
	IntentUnknown Intent = "unknown"
)

// ParseIntent maps a classifier label onto an Intent.
func ParseIntent(label string) Intent {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "수집", "collect":
		return IntentCollect
	case "검색", "search":
		return IntentSearch
	case "분석", "analyze", "analysis":
		return IntentAnalyze
	default:
		return IntentUnknown
	}
}

// Classification is the outcome of the intent and stage calls.
type Classification struct {
	Intent      Intent
	IntentLabel string
	Stage       variables.Stage
	StageLabel  string
}

// Turn travels between graph nodes. Everything else a node needs lives in
// AppState.
type Turn struct {
	Utterance      string
	Classification Classification
}

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Turns on the same session are serialized by the runner, so the Session
//     pointer is never shared between in-flight graphs.
type AppState struct {
	Session        *Session
	Utterance      string
	Classification Classification
	Extracted      map[string]any
	Analysis       *analysis.Report
	Question       string
	NextKey        string
	SearchSummary  string

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput is the graph input.
type TurnInput struct {
	SessionID string     `json:"session_id"`
	Utterance string     `json:"input"`
	History   []Exchange `json:"history"`
}

// TurnSnapshot is the state returned after every turn.
type TurnSnapshot struct {
	SessionID       string                     `json:"session_id"`
	ChatHistory     []Exchange                 `json:"chat_history"`
	ResponseText    string                     `json:"response_text"`
	StructuredData  map[string]any             `json:"structured_data"`
	RelatedDocu     *string                    `json:"related_docu"`
	AnalysisResults map[string]analysis.Result `json:"analysis_results"`
	Intent          string                     `json:"intent"`
	Stage           string                     `json:"stage"`
}
