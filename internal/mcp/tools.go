package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	return timeRange(startStr, endStr, 7)
}

// timeRange parses start/end, defaulting end to now and start to days before end.
func timeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// splitNames parses a comma-separated exercise list, dropping blanks.
func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List completed workouts in a time range. Each workout includes its exercises, sets and one summary line per exercise (e.g. 'Bench Press - 135lb:x8,x8,x6')."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one completed workout by ID with all sets and summary lines."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolGetExerciseProgression = mcp.NewTool("get_exercise_progression",
	mcp.WithDescription("Session-by-session progression of one exercise: top working set, estimated 1RM (Brzycki), working sets and tonnage."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exact exercise name (e.g. 'Bench Press')")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetNextTargets = mcp.NewTool("get_next_targets",
	mcp.WithDescription("Projected weight and reps for every set of the next session of each exercise, derived from the last performance with double progression (add reps up to the top of the range, then add weight and reset reps)."),
	mcp.WithString("exercises", mcp.Required(), mcp.Description("Comma-separated exercise names")),
)

var toolGetCurrentSession = mcp.NewTool("get_current_session",
	mcp.WithDescription("The workout in progress, with displayed weight and reps per set and whether each value is estimated. Returns null when no workout is in progress."),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Monthly/weekly aggregated strength volume: sessions, working sets, reps and tonnage per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 month'."), mcp.Enum("1 week", "1 month")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Totals of stored workouts and sets, date coverage, workouts per source and per-exercise session counts."),
)

// --- Tool handlers ---

type summarizedWorkout struct {
	storage.WorkoutRecord
	Summary []string `json:"summary"`
}

func (h *handlers) summarize(recs []storage.WorkoutRecord) []summarizedWorkout {
	out := make([]summarizedWorkout, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summarizedWorkout{WorkoutRecord: rec, Summary: h.summary.Workout(rec.CompletedWorkout)})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	recs, err := h.ds.ListWorkouts(ctx, start, end, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(h.summarize(recs))
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout ID"), nil
	}

	rec, err := h.ds.GetWorkout(ctx, id, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summarizedWorkout{WorkoutRecord: *rec, Summary: h.summary.Workout(rec.CompletedWorkout)})
}

func (h *handlers) getExerciseProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	points, err := h.ds.GetExerciseProgression(ctx, name, start, end, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_exercise_progression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(points)
}

// plannedSet is one projected set of the next session.
type plannedSet struct {
	Set        int      `json:"set"`
	Warmup     bool     `json:"warmup,omitempty"`
	Bodyweight bool     `json:"bodyweight,omitempty"`
	Weight     *float64 `json:"weight"`
	Reps       *int     `json:"reps"`
	PrevWeight *float64 `json:"prev_weight"`
	PrevReps   *int     `json:"prev_reps"`
}

type exerciseTargets struct {
	Name      string       `json:"name"`
	HasRecord bool         `json:"has_record"`
	Sets      []plannedSet `json:"sets"`
}

// nextTargets runs the estimation engine over a fresh session seeded from
// each exercise's last performance.
func (h *handlers) nextTargets(names []string, hist map[string]workout.PreviousExercise) []exerciseTargets {
	est := workout.NewEstimator(h.policy)
	out := make([]exerciseTargets, 0, len(names))
	for _, name := range names {
		prev, ok := hist[name]
		t := exerciseTargets{Name: name, HasRecord: ok && len(prev.Sets) > 0, Sets: []plannedSet{}}
		exercises := workout.InitialiseExercises([]workout.PreviousExercise{{Name: name, Sets: prev.Sets}})
		ex := exercises[0]
		for i, s := range ex.Sets {
			t.Sets = append(t.Sets, plannedSet{
				Set:        i + 1,
				Warmup:     s.IsWarmup(),
				Bodyweight: s.IsBodyweight(),
				Weight:     est.DisplayWeight(ex, i),
				Reps:       est.DisplayReps(ex, i),
				PrevWeight: s.PrevWeight,
				PrevReps:   s.PrevReps,
			})
		}
		out = append(out, t)
	}
	return out
}

func (h *handlers) getNextTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("exercises")
	if err != nil {
		return mcp.NewToolResultError("exercises parameter is required"), nil
	}
	names := splitNames(raw)
	if len(names) == 0 {
		return mcp.NewToolResultError("exercises parameter is required"), nil
	}

	hist, err := h.ds.LastPerformance(ctx, names, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_next_targets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(h.nextTargets(names, hist))
}

func (h *handlers) getCurrentSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.ds.CurrentSession(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_current_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if view == nil {
		return mcp.NewToolResultText("no workout in progress"), nil
	}
	return jsonResult(view)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 182)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "1 month")

	periods, err := h.ds.GetTrainingSummary(ctx, start, end, bucket, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}
