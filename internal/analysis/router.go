package analysis

import (
	"regexp"

	"github.com/dm-insight-core/server/internal/agent/variables"
)

// rule maps a keyword pattern to the tasks it selects for a stage.
type rule struct {
	name    string
	pattern *regexp.Regexp
	tasks   func(stage variables.Stage) []Task
}

func fixed(tasks ...Task) func(variables.Stage) []Task {
	return func(variables.Stage) []Task { return append([]Task(nil), tasks...) }
}

func byStage(planning, selling Task) func(variables.Stage) []Task {
	return func(stage variables.Stage) []Task {
		if stage == variables.Selling {
			return []Task{selling}
		}
		return []Task{planning}
	}
}

// rules are evaluated first-match-wins. Reordering them changes routing.
var rules = []rule{
	{
		name:    "genre",
		pattern: regexp.MustCompile(`(?i)(장르별|장르.{0,5}통계|장르.{0,5}분석|장르.{0,5}결산|장르.{0,5}추이)`),
		tasks:   fixed(TaskGenreStats),
	},
	{
		name:    "region",
		pattern: regexp.MustCompile(`(?i)(지역별|지역.{0,5}통계|지역.{0,5}분석|지역.{0,5}결산|지역.{0,5}추이)`),
		tasks:   fixed(TaskRegionalStats),
	},
	{
		name:    "venue",
		pattern: regexp.MustCompile(`(?i)(공연장.{0,5}규모|규모별|좌석.{0,5}규모|규모.{0,5}분석)`),
		tasks:   fixed(TaskVenueStats),
	},
	{
		name:    "risk",
		pattern: regexp.MustCompile(`(?i)(티켓.{0,5}위험|위험.{0,5}분석|티켓.{0,5}리스크|위험도|위험|리스크|가능성|실패)`),
		tasks:   fixed(TaskTicketRisk),
	},
	{
		name:    "sales",
		pattern: regexp.MustCompile(`(?i)(관객|티켓|판매량|매출액)`),
		tasks:   byStage(TaskSalesPlanning, TaskSalesSelling),
	},
	{
		name:    "roi",
		pattern: regexp.MustCompile(`(?i)(손익|수익|ROI|BEP|손익분기점)`),
		tasks:   byStage(TaskROIBEPPlanning, TaskROIBEPSelling),
	},
}

// DefaultTasks is the task list run when no keyword rule matches.
func DefaultTasks(stage variables.Stage) []Task {
	if stage == variables.Selling {
		return []Task{TaskSalesSelling, TaskROIBEPSelling, TaskTicketRisk}
	}
	return []Task{TaskSalesPlanning, TaskROIBEPPlanning}
}

// Route maps an utterance and stage onto an ordered, non-empty task list.
func Route(utterance string, stage variables.Stage) []Task {
	for _, r := range rules {
		if r.pattern.MatchString(utterance) {
			return r.tasks(stage)
		}
	}
	return DefaultTasks(stage)
}

// MatchedRule returns the name of the first matching rule, or "default".
func MatchedRule(utterance string) string {
	for _, r := range rules {
		if r.pattern.MatchString(utterance) {
			return r.name
		}
	}
	return "default"
}
