package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dm-insight-core/server/internal/analysis"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

const maxResponseBytes = 4 << 20

// Config points the client at a prediction service exposing one POST
// endpoint per task under BaseURL.
type Config struct {
	BaseURL string        `envconfig:"PREDICTOR_BASE_URL"`
	Timeout time.Duration `envconfig:"PREDICTOR_TIMEOUT" default:"10s"`
}

// Enabled reports whether a prediction service is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// Client calls the remote prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ analysis.Predictor = (*Client)(nil)

func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Predict posts records to {BaseURL}/{task} and decodes the payload.
func (c *Client) Predict(ctx context.Context, task analysis.Task, records []analysis.FeatureRecord) (*analysis.Prediction, error) {
	if c == nil || c.baseURL == "" {
		return nil, errors.New("prediction service not configured")
	}
	if !task.IsPrediction() {
		return nil, fmt.Errorf("task %s is not a prediction task", task)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode feature records: %w", err)
	}
	endpoint := c.baseURL + "/" + task.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor %s: %w", task, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read predictor response: %w", err)
	}
	logx.Debug().
		Str("task", task.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("predictor responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("predictor %s failed with status %d: %s", task, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return Decode(body)
}
