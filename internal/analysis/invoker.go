package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dm-insight-core/server/internal/analysis/stats"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// Prediction is the decoded output of a prediction backend.
type Prediction struct {
	// Values holds one row of regression outputs per input record.
	Values     [][]float64
	Labels     []int
	RiskDetail *RiskDetail
	Shape      Shape
	Extras     map[string]json.RawMessage
}

// Predictor runs the pretrained model behind a prediction task.
type Predictor interface {
	Predict(ctx context.Context, task Task, records []FeatureRecord) (*Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, task Task, records []FeatureRecord) (*Prediction, error)

func (f PredictorFunc) Predict(ctx context.Context, task Task, records []FeatureRecord) (*Prediction, error) {
	return f(ctx, task, records)
}

// Invoker dispatches tasks to the predictor or the statistics source. Any
// backend failure is replaced by the task's static fallback.
type Invoker struct {
	predictor Predictor
	stats     stats.Source
}

// NewInvoker builds an Invoker. A nil predictor makes every prediction task
// fall back; a nil stats source serves the static dataset.
func NewInvoker(predictor Predictor, source stats.Source) *Invoker {
	if source == nil {
		source = stats.Static{}
	}
	return &Invoker{predictor: predictor, stats: source}
}

// Invoke runs task. record is ignored for statistics tasks.
func (iv *Invoker) Invoke(ctx context.Context, task Task, record FeatureRecord) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("task", task.String()).Interface("panic", r).Msg("analysis backend panicked, using fallback")
			res = Fallback(task)
		}
	}()

	switch {
	case task.IsStats():
		return iv.invokeStats(ctx, task)
	case task.IsPrediction():
		return iv.invokePrediction(ctx, task, record)
	default:
		return Fallback(task)
	}
}

func (iv *Invoker) invokeStats(ctx context.Context, task Task) Result {
	res := Result{Task: task, Source: SourcePredictor}
	var err error
	switch task {
	case TaskGenreStats:
		res.Genre, err = iv.stats.Genre(ctx)
	case TaskRegionalStats:
		res.Regional, err = iv.stats.Regional(ctx)
	case TaskVenueStats:
		res.Venue, err = iv.stats.VenueScale(ctx)
	}
	if err == nil && res.Genre == nil && res.Regional == nil && res.Venue == nil {
		err = fmt.Errorf("statistics source returned no data for %s", task)
	}
	if err != nil {
		logx.Warn().Err(err).Str("task", task.String()).Msg("statistics unavailable, using fallback")
		return Fallback(task)
	}
	return res
}

func (iv *Invoker) invokePrediction(ctx context.Context, task Task, record FeatureRecord) Result {
	if iv.predictor == nil {
		logx.Debug().Str("task", task.String()).Msg("no predictor configured, using fallback")
		return Fallback(task)
	}

	pred, err := iv.predictor.Predict(ctx, task, []FeatureRecord{record})
	if err == nil && pred == nil {
		err = fmt.Errorf("predictor returned no payload for %s", task)
	}
	if err != nil {
		logx.Warn().Err(err).Str("task", task.String()).Msg("prediction failed, using fallback")
		return Fallback(task)
	}

	res := Result{Task: task, Source: SourcePredictor, Extras: pred.Extras}
	switch {
	case task.isSales():
		if len(pred.Values) > 0 && len(pred.Values[0]) > 0 {
			res.Sales = &SalesForecast{Audience: pred.Values[0][0], Shape: pred.Shape}
		}
	case task.isROIBEP():
		if len(pred.Values) > 0 {
			row := pred.Values[0]
			f := &ROIBEPForecast{Shape: pred.Shape}
			if len(row) > 0 {
				f.ROI = row[0]
			}
			if len(row) > 1 {
				f.BEP = row[1]
			}
			res.ROIBEP = f
		}
	case task == TaskTicketRisk:
		res.Risk = &RiskAssessment{Labels: pred.Labels, Detail: pred.RiskDetail}
	}
	return res
}
