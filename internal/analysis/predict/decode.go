package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/dm-insight-core/server/internal/analysis"
)

var reservedKeys = map[string]struct{}{
	"predictions": {},
	"risk_labels": {},
	"risk_detail": {},
	"source":      {},
	"error":       {},
}

// Decode turns a prediction payload into an analysis.Prediction.
//
// Accepted bodies:
//
//	{"predictions": [v, ...], ...extras}                 raw model output
//	{"predictions": [[roi, bep], ...], ...extras}        raw model output
//	{"predictions": {"predictions": [...], ...extras}}   wrapped model output
//	{"risk_labels": [l, ...], "risk_detail": {...}}      classification
//	{"risk_labels": {"risk_labels": [...], ...}}         wrapped classification
//
// Model output is ratio-valued and decoded as analysis.ShapeNested. A body
// tagged "source":"fallback" carries static percentages and decodes as
// analysis.ShapeFlat.
func Decode(body []byte) (*analysis.Prediction, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("decode prediction payload: %w", err)
	}
	if raw, ok := top["error"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		if msg == "" {
			msg = string(raw)
		}
		return nil, fmt.Errorf("predictor reported error: %s", msg)
	}

	pred := &analysis.Prediction{Shape: analysis.ShapeNested}
	var source string
	if raw, ok := top["source"]; ok {
		_ = json.Unmarshal(raw, &source)
	}

	fields := top
	switch {
	case isObject(top["predictions"]):
		inner, err := object(top["predictions"])
		if err != nil {
			return nil, err
		}
		fields = inner
	case isObject(top["risk_labels"]):
		inner, err := object(top["risk_labels"])
		if err != nil {
			return nil, err
		}
		fields = inner
	case source == "fallback":
		pred.Shape = analysis.ShapeFlat
	}

	if raw, ok := fields["predictions"]; ok {
		values, err := decodeValues(raw)
		if err != nil {
			return nil, err
		}
		pred.Values = values
	}
	if raw, ok := fields["risk_labels"]; ok {
		labels, err := decodeLabels(raw)
		if err != nil {
			return nil, err
		}
		pred.Labels = labels
	}
	if raw, ok := fields["risk_detail"]; ok && !isNull(raw) {
		var detail analysis.RiskDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			return nil, fmt.Errorf("decode risk_detail: %w", err)
		}
		pred.RiskDetail = &detail
	}
	if pred.Values == nil && pred.Labels == nil {
		return nil, errors.New("prediction payload has neither predictions nor risk_labels")
	}

	for k, v := range fields {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if pred.Extras == nil {
			pred.Extras = make(map[string]json.RawMessage)
		}
		pred.Extras[k] = v
	}
	return pred, nil
}

func decodeValues(raw json.RawMessage) ([][]float64, error) {
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	return [][]float64{flat}, nil
}

func decodeLabels(raw json.RawMessage) ([]int, error) {
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		var single float64
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("decode risk_labels: %w", err)
		}
		values = []float64{single}
	}
	labels := make([]int, len(values))
	for i, v := range values {
		labels[i] = int(math.Trunc(v))
	}
	return labels, nil
}

func object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode wrapped prediction payload: %w", err)
	}
	return m, nil
}

func isObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
