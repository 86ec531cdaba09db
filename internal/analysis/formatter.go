package analysis

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/dm-insight-core/server/internal/agent/variables"
)

// FeatureRecord is a task-shaped predictor input.
type FeatureRecord map[string]any

const (
	startDateKey        = "start_date"
	startDateNumericKey = "start_date_numeric"
	promoFlagKey        = "promo_event_flag"
)

var salesPlanningDefaults = FeatureRecord{
	"genre":              "뮤지컬",
	"region":             "서울특별시",
	"start_date_numeric": 1.0,
	"capacity":           502000.5,
	"star_power":         280.0,
	"ticket_price":       40439.5,
	"marketing_budget":   8098512.5,
	"sns_mention_count":  38.0,
	"duration":           1,
}

var salesSellingDefaults = FeatureRecord{
	"genre":              "뮤지컬",
	"region":             "서울특별시",
	"start_date_numeric": 1.0,
	"capacity":           502000.5,
	"star_power":         280.0,
	"ticket_price":       40439.5,
	"marketing_budget":   8098512.5,
	"sns_mention_count":  38.0,
	"daily_sales":        2.0,
	"booking_rate":       0.7,
	"ad_exposure":        303284.5,
	"sns_mention_daily":  38.0,
	"duration":           1,
}

var roiBEPDefaults = FeatureRecord{
	"production_cost":    570111934.0,
	"marketing_budget":   8098512.5,
	"ticket_price":       40349.5,
	"capacity":           280.0,
	"variable_cost_rate": 0.17755,
	"accumulated_sales":  105.0,
	"duration":           1,
}

var ticketRiskDefaults = FeatureRecord{
	"genre":              "뮤지컬",
	"region":             "서울특별시",
	"start_date_numeric": 1.0,
	"capacity":           280.0,
	"star_power":         1.0,
	"daily_sales":        2.0,
	"accumulated_sales":  105.0,
	"ad_exposure":        303284.5,
	"sns_mention_daily":  0.0,
	"promo_event_flag":   0,
	"duration":           1,
}

// Defaults returns a copy of the fixed default record for task, or nil for
// statistics and unknown tasks.
func Defaults(task Task) FeatureRecord {
	var src FeatureRecord
	switch task {
	case TaskSalesPlanning:
		src = salesPlanningDefaults
	case TaskSalesSelling:
		src = salesSellingDefaults
	case TaskROIBEPPlanning, TaskROIBEPSelling:
		src = roiBEPDefaults
	case TaskTicketRisk:
		src = ticketRiskDefaults
	default:
		return nil
	}
	return maps.Clone(src)
}

// Formatter turns collected variables into task records. Numeric coercion
// follows the numeric keys of its variable schema.
type Formatter struct {
	numeric []string
}

// NewFormatter builds a Formatter for sch; nil selects the embedded schema.
func NewFormatter(sch *variables.Schema) *Formatter {
	if sch == nil {
		sch = variables.Default()
	}
	return &Formatter{numeric: sch.NumericKeys()}
}

var defaultFormatter = NewFormatter(nil)

// Format normalizes collected variables into the record task expects with the
// embedded schema.
func Format(collected map[string]any, task Task) FeatureRecord {
	return defaultFormatter.Format(collected, task)
}

// Complete fills an external record with the task defaults using the embedded
// schema.
func Complete(record map[string]any, task Task) FeatureRecord {
	return defaultFormatter.Complete(record, task)
}

// Format normalizes collected variables into the record task expects. Only
// the task's default keys are emitted; collected values override defaults.
// Statistics tasks take no record and yield nil.
func (f *Formatter) Format(collected map[string]any, task Task) FeatureRecord {
	rec := Defaults(task)
	if rec == nil {
		return nil
	}
	normalized := f.normalize(collected)
	for k := range rec {
		if v, ok := normalized[k]; ok {
			rec[k] = v
		}
	}
	return rec
}

// Complete fills the missing fields of an externally supplied record with the
// task defaults, applying the same normalization as Format. Unlike Format it
// keeps fields the task does not declare.
func (f *Formatter) Complete(record map[string]any, task Task) FeatureRecord {
	out := FeatureRecord(f.normalize(record))
	for k, v := range Defaults(task) {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func (f *Formatter) normalize(collected map[string]any) map[string]any {
	out := maps.Clone(collected)
	if out == nil {
		out = map[string]any{}
	}

	if raw, ok := out[startDateKey]; ok {
		s, _ := raw.(string)
		out[startDateNumericKey] = DayOfYear(s)
	}

	for _, field := range f.numeric {
		raw, ok := out[field]
		if !ok {
			continue
		}
		if n, ok := toFloat(raw); ok {
			out[field] = n
		} else {
			delete(out, field)
		}
	}

	switch v := out[promoFlagKey].(type) {
	case string:
		if strings.EqualFold(v, "true") {
			out[promoFlagKey] = 1
		} else {
			out[promoFlagKey] = 0
		}
	case bool:
		if v {
			out[promoFlagKey] = 1
		} else {
			out[promoFlagKey] = 0
		}
	}
	return out
}

// DayOfYear converts a YYYY-MM-DD date into its 1-based ordinal day. Empty or
// unparsable input yields 1.
func DayOfYear(date string) float64 {
	if date == "" {
		return 1.0
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 1.0
	}
	return float64(t.YearDay())
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		var b strings.Builder
		for _, r := range n {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		f, err := strconv.ParseFloat(b.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
