package analysis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dm-insight-core/server/internal/agent/variables"
)

func TestFormatEmptyReproducesDefaults(t *testing.T) {
	for _, task := range Tasks {
		got := Format(map[string]any{}, task)
		want := Defaults(task)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: empty format mismatch (-want +got):\n%s", task, diff)
		}
	}

	want := FeatureRecord{
		"production_cost":    570111934.0,
		"marketing_budget":   8098512.5,
		"ticket_price":       40349.5,
		"capacity":           280.0,
		"variable_cost_rate": 0.17755,
		"accumulated_sales":  105.0,
		"duration":           1,
	}
	if diff := cmp.Diff(want, Format(nil, TaskROIBEPSelling)); diff != "" {
		t.Fatalf("roi defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatStatsTasksTakeNoRecord(t *testing.T) {
	for _, task := range []Task{TaskGenreStats, TaskRegionalStats, TaskVenueStats, Task("weather")} {
		if got := Format(map[string]any{"genre": "연극"}, task); got != nil {
			t.Fatalf("%s: expected nil record, got %v", task, got)
		}
	}
}

func TestFormatOverridesAndCoerces(t *testing.T) {
	collected := map[string]any{
		"genre":             "연극",
		"start_date":        "2025-03-01",
		"ticket_price":      "55,000원",
		"capacity":          json.Number("800"),
		"star_power":        true,
		"marketing_budget":  "미정",
		"sns_mention_daily": 12,
		"promo_event_flag":  "TRUE",
		"booking_rate":      72.5,
	}

	got := Format(collected, TaskTicketRisk)
	want := FeatureRecord{
		"genre":              "연극",
		"region":             "서울특별시",
		"start_date_numeric": 60.0,
		"capacity":           800.0,
		"star_power":         1.0,
		"daily_sales":        2.0,
		"accumulated_sales":  105.0,
		"ad_exposure":        303284.5,
		"sns_mention_daily":  12.0,
		"promo_event_flag":   1,
		"duration":           1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("risk record mismatch (-want +got):\n%s", diff)
	}

	sales := Format(collected, TaskSalesPlanning)
	if sales["ticket_price"] != 55000.0 {
		t.Fatalf("ticket_price = %v, want 55000", sales["ticket_price"])
	}
	// an uncoercible value is dropped and the default applies
	if sales["marketing_budget"] != 8098512.5 {
		t.Fatalf("marketing_budget = %v, want default", sales["marketing_budget"])
	}
	if _, ok := sales["booking_rate"]; ok {
		t.Fatalf("planning record must not carry selling-only fields")
	}
}

func TestFormatDoesNotMutateInput(t *testing.T) {
	collected := map[string]any{"ticket_price": "40000", "start_date": "2025-01-02"}
	_ = Format(collected, TaskSalesSelling)
	if collected["ticket_price"] != "40000" {
		t.Fatalf("collected variables were mutated: %v", collected)
	}
	if _, ok := collected["start_date_numeric"]; ok {
		t.Fatalf("collected variables were mutated: %v", collected)
	}
}

func TestPromoFlagFalseString(t *testing.T) {
	got := Format(map[string]any{"promo_event_flag": "False"}, TaskTicketRisk)
	if got["promo_event_flag"] != 0 {
		t.Fatalf("promo_event_flag = %v", got["promo_event_flag"])
	}
	got = Format(map[string]any{"promo_event_flag": false}, TaskTicketRisk)
	if got["promo_event_flag"] != 0 {
		t.Fatalf("promo_event_flag = %v", got["promo_event_flag"])
	}
}

func TestDayOfYear(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2025-01-01", 1},
		{"2025-12-31", 365},
		{"2024-12-31", 366},
		{"2025-02-30", 1},
		{"내년 봄", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := DayOfYear(tt.in); got != tt.want {
			t.Fatalf("DayOfYear(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompleteKeepsExtraFields(t *testing.T) {
	got := Complete(map[string]any{"ticket_price": 30000, "custom": "x"}, TaskSalesPlanning)
	if got["ticket_price"] != 30000.0 || got["custom"] != "x" || got["genre"] != "뮤지컬" {
		t.Fatalf("unexpected completed record: %v", got)
	}
}

func TestFormatterFollowsSchemaNumericKeys(t *testing.T) {
	sch, err := variables.Parse([]byte(`
numeric: [capacity]
date: [start_date]
categorical:
  - key: genre
    values: [뮤지컬, 연극]
stages:
  planning: [genre, capacity]
  selling: [genre, capacity, start_date]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	collected := map[string]any{"capacity": "500석", "ticket_price": "30000"}

	got := NewFormatter(sch).Format(collected, TaskSalesPlanning)
	if got["capacity"] != 500.0 {
		t.Fatalf("capacity = %#v, want 500.0", got["capacity"])
	}
	if got["ticket_price"] != "30000" {
		t.Fatalf("ticket_price = %#v, want it left as collected", got["ticket_price"])
	}

	if got := Format(collected, TaskSalesPlanning); got["ticket_price"] != 30000.0 {
		t.Fatalf("embedded schema ticket_price = %#v, want 30000.0", got["ticket_price"])
	}

	svc := NewService(NewInvoker(nil, nil), sch)
	if got := svc.Complete(collected, TaskSalesPlanning); got["ticket_price"] != "30000" {
		t.Fatalf("service ignored its schema: %#v", got["ticket_price"])
	}
}
