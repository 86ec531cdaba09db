package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dm-insight-core/server/internal/agent/variables"
	"github.com/dm-insight-core/server/internal/analysis/stats"
)

type failingStats struct{}

func (failingStats) Genre(context.Context) (*stats.Genre, error) { return nil, errors.New("db down") }
func (failingStats) Regional(context.Context) (*stats.Regional, error) {
	return nil, errors.New("db down")
}
func (failingStats) VenueScale(context.Context) (*stats.VenueScale, error) {
	return nil, errors.New("db down")
}

func TestInvokerWithoutPredictorFallsBack(t *testing.T) {
	iv := NewInvoker(nil, nil)
	for _, task := range []Task{TaskSalesPlanning, TaskSalesSelling, TaskROIBEPPlanning, TaskROIBEPSelling, TaskTicketRisk} {
		got := iv.Invoke(context.Background(), task, Defaults(task))
		if got.Source != SourceFallback {
			t.Fatalf("%s: source = %s, want fallback", task, got.Source)
		}
	}
}

func TestInvokerPredictorErrorAndPanicFallBack(t *testing.T) {
	erring := NewInvoker(PredictorFunc(func(context.Context, Task, []FeatureRecord) (*Prediction, error) {
		return nil, errors.New("model artifact missing")
	}), nil)
	if got := erring.Invoke(context.Background(), TaskROIBEPSelling, nil); got.Source != SourceFallback || got.ROIBEP.ROI != 18.5 {
		t.Fatalf("unexpected result: %+v", got)
	}

	panicking := NewInvoker(PredictorFunc(func(context.Context, Task, []FeatureRecord) (*Prediction, error) {
		panic("boom")
	}), nil)
	if got := panicking.Invoke(context.Background(), TaskSalesSelling, nil); got.Source != SourceFallback || got.Sales.Audience != 20000 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestInvokerMapsPredictions(t *testing.T) {
	var gotRecords []FeatureRecord
	var gotTask Task
	p := PredictorFunc(func(_ context.Context, task Task, records []FeatureRecord) (*Prediction, error) {
		gotTask, gotRecords = task, records
		switch task {
		case TaskTicketRisk:
			return &Prediction{
				Labels:     []int{2},
				RiskDetail: &RiskDetail{CurrentBookingRate: 40, TargetBookingRate: 75, Warning: "고위험"},
			}, nil
		case TaskROIBEPPlanning:
			return &Prediction{Values: [][]float64{{-0.85, 3420}}, Shape: ShapeNested}, nil
		default:
			return &Prediction{Values: [][]float64{{4321}}, Shape: ShapeNested}, nil
		}
	})
	iv := NewInvoker(p, nil)
	ctx := context.Background()

	rec := Format(map[string]any{"ticket_price": "30000"}, TaskSalesPlanning)
	sales := iv.Invoke(ctx, TaskSalesPlanning, rec)
	if gotTask != TaskSalesPlanning || len(gotRecords) != 1 || gotRecords[0]["ticket_price"] != 30000.0 {
		t.Fatalf("predictor received %s %v", gotTask, gotRecords)
	}
	if sales.Source != SourcePredictor || sales.Sales.Audience != 4321 || sales.Sales.Shape != ShapeNested {
		t.Fatalf("unexpected sales result: %+v", sales)
	}

	roi := iv.Invoke(ctx, TaskROIBEPPlanning, nil)
	if diff := cmp.Diff(&ROIBEPForecast{ROI: -0.85, BEP: 3420, Shape: ShapeNested}, roi.ROIBEP); diff != "" {
		t.Fatalf("roi mismatch (-want +got):\n%s", diff)
	}

	risk := iv.Invoke(ctx, TaskTicketRisk, nil)
	text := Interpret(risk)
	if !strings.Contains(text, "높음") || !strings.Contains(text, "판매 위험도가 높습니다. 추가 마케팅 활동과 프로모션을 적극 고려하세요.") {
		t.Fatalf("risk text = %q", text)
	}
}

func TestInvokerStats(t *testing.T) {
	ctx := context.Background()

	live := NewInvoker(nil, stats.Static{}).Invoke(ctx, TaskGenreStats, nil)
	if live.Source != SourcePredictor || len(live.Genre.Genre) != 9 {
		t.Fatalf("unexpected static genre result: %+v", live)
	}

	degraded := NewInvoker(nil, failingStats{})
	for _, task := range []Task{TaskGenreStats, TaskRegionalStats, TaskVenueStats} {
		got := degraded.Invoke(ctx, task, nil)
		if got.Source != SourceFallback {
			t.Fatalf("%s: source = %s, want fallback", task, got.Source)
		}
	}
	if got := degraded.Invoke(ctx, TaskRegionalStats, nil); got.Regional.Region[0] != "서울" {
		t.Fatalf("unexpected regional fallback: %+v", got.Regional)
	}
}

func TestInvokerUnknownTask(t *testing.T) {
	got := NewInvoker(nil, nil).Invoke(context.Background(), Task("weather"), nil)
	if got.Err != UnknownTaskMessage {
		t.Fatalf("Err = %q", got.Err)
	}
}

func TestResultMarshalShapes(t *testing.T) {
	extras := map[string]json.RawMessage{"comparison": json.RawMessage(`{"performances":[]}`)}
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "flat roi",
			res:  Fallback(TaskROIBEPPlanning),
			want: `{"predictions":[15.5,8000],"source":"fallback"}`,
		},
		{
			name: "nested sales with extras",
			res:  Result{Task: TaskSalesPlanning, Source: SourcePredictor, Sales: &SalesForecast{Audience: 2800, Shape: ShapeNested}, Extras: extras},
			want: `{"predictions":{"comparison":{"performances":[]},"predictions":[2800]},"source":"predictor"}`,
		},
		{
			name: "nested roi",
			res:  Result{Task: TaskROIBEPSelling, Source: SourcePredictor, ROIBEP: &ROIBEPForecast{ROI: 0.1, BEP: 50, Shape: ShapeNested}},
			want: `{"predictions":{"predictions":[[0.1,50]]},"source":"predictor"}`,
		},
		{
			name: "risk with detail",
			res:  Result{Task: TaskTicketRisk, Source: SourcePredictor, Risk: &RiskAssessment{Labels: []int{1}, Detail: &RiskDetail{CurrentBookingRate: 65, TargetBookingRate: 75, Warning: "중위험"}}},
			want: `{"risk_detail":{"current_booking_rate":65,"target_booking_rate":75,"warning":"중위험"},"risk_labels":[1],"source":"predictor"}`,
		},
		{
			name: "unknown",
			res:  Fallback(Task("weather")),
			want: `{"error":"알 수 없는 분석 유형","source":"fallback"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.res)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}

	raw, err := json.Marshal(Fallback(TaskGenreStats))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		GenreStats stats.Genre `json:"genre_stats"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.GenreStats.Genre) != 8 {
		t.Fatalf("genre stats payload lost: %s", raw)
	}
}

func TestServiceAnalyze(t *testing.T) {
	svc := NewService(NewInvoker(nil, nil), nil)
	report := svc.Analyze(context.Background(), "분석해줘", variables.Selling, map[string]any{})

	if diff := cmp.Diff([]Task{TaskSalesSelling, TaskROIBEPSelling, TaskTicketRisk}, report.Tasks); diff != "" {
		t.Fatalf("tasks mismatch (-want +got):\n%s", diff)
	}
	want := "## 📊 분석 결과\n\n" +
		"🎭 예상 관객 수: 약 20,000명\n" + "\n" +
		"📈 예상 ROI(투자수익률): 18.50%\n⚖️ 손익분기점(BEP): 약 9,500명의 관객\n" + "\n" +
		"⚠️ 티켓 판매 위험도: 낮음\n현재 판매 추세가 양호합니다. 현재 전략을 유지하세요."
	if report.Section != want {
		t.Fatalf("section:\n%q\nwant:\n%q", report.Section, want)
	}
	byTask := report.ByTask()
	if len(byTask) != 3 || byTask["ticket_risk_selling"].Risk == nil {
		t.Fatalf("unexpected results index: %v", byTask)
	}
}
