package analysis

import (
	"context"

	"github.com/dm-insight-core/server/internal/agent/variables"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// Report is the outcome of one analysis request.
type Report struct {
	Tasks   []Task
	Results []Result
	Texts   []string
	// Section is the rendered reply block, empty when nothing ran.
	Section string
}

// ByTask indexes the results by task identifier.
func (r *Report) ByTask() map[string]Result {
	if r == nil {
		return map[string]Result{}
	}
	out := make(map[string]Result, len(r.Results))
	for _, res := range r.Results {
		out[res.Task.String()] = res
	}
	return out
}

// Service routes an utterance to tasks and runs format, invoke and interpret
// for each one in order.
type Service struct {
	invoker   *Invoker
	formatter *Formatter
}

// NewService builds a Service. sch drives numeric coercion of collected
// variables; nil selects the embedded schema.
func NewService(invoker *Invoker, sch *variables.Schema) *Service {
	return &Service{invoker: invoker, formatter: NewFormatter(sch)}
}

func (s *Service) Analyze(ctx context.Context, utterance string, stage variables.Stage, collected map[string]any) *Report {
	tasks := Route(utterance, stage)
	logx.Debug().
		Str("rule", MatchedRule(utterance)).
		Str("stage", string(stage)).
		Interface("tasks", tasks).
		Msg("routed analysis request")

	report := &Report{Tasks: tasks}
	for _, task := range tasks {
		res := s.Run(ctx, task, s.formatter.Format(collected, task))
		report.Results = append(report.Results, res)
		report.Texts = append(report.Texts, Interpret(res))
	}
	report.Section = Section(report.Texts)
	return report
}

// Complete fills an externally supplied record with the task defaults.
func (s *Service) Complete(record map[string]any, task Task) FeatureRecord {
	return s.formatter.Complete(record, task)
}

// Run invokes a single task with an already formatted record.
func (s *Service) Run(ctx context.Context, task Task, record FeatureRecord) Result {
	res := s.invoker.Invoke(ctx, task, record)
	logx.Debug().
		Str("task", task.String()).
		Str("source", string(res.Source)).
		Msg("analysis task finished")
	return res
}
