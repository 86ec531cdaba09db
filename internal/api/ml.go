package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dm-insight-core/server/internal/analysis"
)

// handlePredict accepts one feature record or a list of them. Missing fields
// take the task defaults. A list answers with one result per record.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	task, ok := analysis.ParseTask(chi.URLParam(r, "task"))
	if !ok {
		writeError(w, http.StatusNotFound, analysis.UnknownTaskMessage)
		return
	}
	if !task.IsPrediction() {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "statistics tasks are read with GET")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}
	records, single, err := decodeRecords(body)
	if err != nil || len(records) == 0 {
		writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}

	results := make([]analysis.Result, 0, len(records))
	for _, rec := range records {
		results = append(results, s.analysis.Run(r.Context(), task, s.analysis.Complete(rec, task)))
	}
	if single {
		writeJSON(w, http.StatusOK, results[0])
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	task, ok := analysis.ParseTask(chi.URLParam(r, "task"))
	if !ok {
		writeError(w, http.StatusNotFound, analysis.UnknownTaskMessage)
		return
	}
	if !task.IsStats() {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "prediction tasks are run with POST")
		return
	}
	writeJSON(w, http.StatusOK, s.analysis.Run(r.Context(), task, nil))
}

// decodeRecords reads either a JSON object or an array of objects.
func decodeRecords(body []byte) (records []map[string]any, single bool, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var rec map[string]any
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, false, err
		}
		return []map[string]any{rec}, true, nil
	}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, false, err
	}
	return records, false, nil
}
