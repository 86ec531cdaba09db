package analysis

import (
	"encoding/json"

	"github.com/dm-insight-core/server/internal/analysis/stats"
)

// Source tells a genuine result apart from a substituted one.
type Source string

const (
	SourcePredictor Source = "predictor"
	SourceFallback  Source = "fallback"
)

// Shape records how the prediction payload was wrapped on ingress. The ROI of
// a nested payload is a ratio; the ROI of a flat payload is already a
// percentage.
type Shape int

const (
	ShapeFlat Shape = iota
	ShapeNested
)

type SalesForecast struct {
	Audience float64
	Shape    Shape
}

type ROIBEPForecast struct {
	ROI   float64
	BEP   float64
	Shape Shape
}

// RiskDetail is the booking-rate context a risk predictor may attach.
type RiskDetail struct {
	CurrentBookingRate float64 `json:"current_booking_rate"`
	TargetBookingRate  float64 `json:"target_booking_rate"`
	Warning            string  `json:"warning"`
}

type RiskAssessment struct {
	Labels []int
	Detail *RiskDetail
}

// Result is the outcome of one task. Exactly one payload field is set, or
// Err for unknown tasks.
type Result struct {
	Task     Task
	Source   Source
	Sales    *SalesForecast
	ROIBEP   *ROIBEPForecast
	Risk     *RiskAssessment
	Genre    *stats.Genre
	Regional *stats.Regional
	Venue    *stats.VenueScale
	// Extras carries predictor side data (comparison, time_series, ...).
	Extras map[string]json.RawMessage
	Err    string
}

// MarshalJSON renders the payload in the wire shape dashboards consume.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"source": r.Source}
	switch {
	case r.Err != "":
		out["error"] = r.Err
	case r.Sales != nil:
		if r.Sales.Shape == ShapeNested {
			out["predictions"] = r.nested([]float64{r.Sales.Audience})
		} else {
			out["predictions"] = []float64{r.Sales.Audience}
		}
	case r.ROIBEP != nil:
		pair := []float64{r.ROIBEP.ROI, r.ROIBEP.BEP}
		if r.ROIBEP.Shape == ShapeNested {
			out["predictions"] = r.nested([][]float64{pair})
		} else {
			out["predictions"] = pair
		}
	case r.Risk != nil:
		labels := r.Risk.Labels
		if labels == nil {
			labels = []int{}
		}
		out["risk_labels"] = labels
		if r.Risk.Detail != nil {
			out["risk_detail"] = r.Risk.Detail
		}
	case r.Genre != nil:
		out["genre_stats"] = r.Genre
	case r.Regional != nil:
		out["regional_stats"] = r.Regional
	case r.Venue != nil:
		out["venue_scale_stats"] = r.Venue
	}
	return json.Marshal(out)
}

func (r Result) nested(predictions any) map[string]any {
	inner := make(map[string]any, len(r.Extras)+1)
	for k, v := range r.Extras {
		inner[k] = v
	}
	inner["predictions"] = predictions
	return inner
}
