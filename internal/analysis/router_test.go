package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dm-insight-core/server/internal/agent/variables"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		stage     variables.Stage
		want      []Task
	}{
		{"genre stats pre-empts selling defaults", "장르별 통계 보여줘", variables.Selling, []Task{TaskGenreStats}},
		{"genre trend with gap", "장르 흐름 추이 알려줘", variables.Planning, []Task{TaskGenreStats}},
		{"region beats risk", "지역별 위험 분석", variables.Selling, []Task{TaskRegionalStats}},
		{"venue scale", "공연장 규모 알려줘", variables.Planning, []Task{TaskVenueStats}},
		{"risk regardless of stage", "실패할 가능성이 있을까?", variables.Planning, []Task{TaskTicketRisk}},
		{"ticket risk beats ticket sales", "티켓 리스크는?", variables.Selling, []Task{TaskTicketRisk}},
		{"audience planning", "관객이 몇 명 올까", variables.Planning, []Task{TaskSalesPlanning}},
		{"audience selling", "판매량 예측해줘", variables.Selling, []Task{TaskSalesSelling}},
		{"roi case insensitive", "roi 알려줘", variables.Planning, []Task{TaskROIBEPPlanning}},
		{"bep selling", "손익분기점은?", variables.Selling, []Task{TaskROIBEPSelling}},
		{"planning defaults", "분석해줘", variables.Planning, []Task{TaskSalesPlanning, TaskROIBEPPlanning}},
		{"selling defaults", "분석해줘", variables.Selling, []Task{TaskSalesSelling, TaskROIBEPSelling, TaskTicketRisk}},
		{"unknown stage uses planning", "분석해줘", variables.Stage("모름"), []Task{TaskSalesPlanning, TaskROIBEPPlanning}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.utterance, tt.stage)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Route(%q) mismatch (-want +got):\n%s", tt.utterance, diff)
			}
		})
	}
}

func TestRouteWindowIsBounded(t *testing.T) {
	// more than five characters between 장르 and 분석 does not match the genre rule
	got := Route("장르 이야기는 길게 하고 분석", variables.Planning)
	if diff := cmp.Diff([]Task{TaskSalesPlanning, TaskROIBEPPlanning}, got); diff != "" {
		t.Fatalf("unexpected route (-want +got):\n%s", diff)
	}
}

func TestRouteReturnsFreshSlices(t *testing.T) {
	first := Route("장르별", variables.Planning)
	first[0] = TaskTicketRisk
	if got := Route("장르별", variables.Planning); got[0] != TaskGenreStats {
		t.Fatalf("router leaked a shared slice: %v", got)
	}
}

func TestParseTask(t *testing.T) {
	for _, task := range Tasks {
		got, ok := ParseTask(task.String())
		if !ok || got != task {
			t.Fatalf("ParseTask(%q) = %q, %v", task, got, ok)
		}
		if task.IsStats() == task.IsPrediction() {
			t.Fatalf("task %q must be exactly one of stats or prediction", task)
		}
	}
	if _, ok := ParseTask("weather"); ok {
		t.Fatalf("unexpected task accepted")
	}
}
