package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketToAgg maps MCP bucket values to REST API agg parameter values.
func bucketToAgg(bucket string) string {
	switch bucket {
	case "1 week":
		return "weekly"
	default:
		return "monthly"
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, what string, v any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", what, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, start, end time.Time, _ int) ([]storage.WorkoutRecord, error) {
	var recs []storage.WorkoutRecord
	if err := c.getJSON(ctx, "/api/v1/workouts", timeParams(start, end), "workouts", &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, workoutID uuid.UUID, _ int) (*storage.WorkoutRecord, error) {
	var rec storage.WorkoutRecord
	if err := c.getJSON(ctx, "/api/v1/workouts/"+workoutID.String(), nil, "workout", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) LastPerformance(ctx context.Context, names []string, _ int) (map[string]workout.PreviousExercise, error) {
	params := url.Values{"name": names}
	var hist map[string]workout.PreviousExercise
	if err := c.getJSON(ctx, "/api/v1/exercises/last", params, "history", &hist); err != nil {
		return nil, err
	}
	return hist, nil
}

func (c *HTTPClient) GetExerciseProgression(ctx context.Context, name string, start, end time.Time, _ int) ([]storage.ExerciseProgression, error) {
	params := timeParams(start, end)
	params.Set("name", name)

	var points []storage.ExerciseProgression
	if err := c.getJSON(ctx, "/api/v1/exercises/progression", params, "progression", &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.TrainingSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("agg", bucketToAgg(bucket))

	var periods []storage.TrainingSummaryPeriod
	if err := c.getJSON(ctx, "/api/v1/training/summary", params, "training summary", &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.getJSON(ctx, "/api/v1/stats", nil, "stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) CurrentSession(ctx context.Context, _ int) (*workout.View, error) {
	var resp struct {
		Session *workout.View `json:"session"`
	}
	if err := c.getJSON(ctx, "/api/v1/session", nil, "session", &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}
