package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/progression"
	"github.com/google/uuid"
)

// ExerciseProgression holds one session's top working set for an exercise.
type ExerciseProgression struct {
	WorkoutID    uuid.UUID `json:"workout_id"`
	Date         string    `json:"date"`
	TopWeight    float64   `json:"top_weight"`
	TopReps      int       `json:"top_reps"`
	Estimated1RM *float64  `json:"estimated_1rm,omitempty"`
	WorkingSets  int       `json:"working_sets"`
	Tonnage      float64   `json:"tonnage"`
}

type progressRow struct {
	WorkoutID uuid.UUID
	StartedAt time.Time
	Weight    *float64
	Reps      *int
}

// sessionProgression folds rows ordered by start time into one entry per
// workout. The top set is the one with the highest estimated 1RM, falling
// back to the heaviest when no set has an estimate.
func sessionProgression(rows []progressRow) []ExerciseProgression {
	var result []ExerciseProgression
	var cur *ExerciseProgression
	for _, r := range rows {
		if cur == nil || cur.WorkoutID != r.WorkoutID {
			result = append(result, ExerciseProgression{
				WorkoutID: r.WorkoutID,
				Date:      r.StartedAt.UTC().Format("2006-01-02"),
			})
			cur = &result[len(result)-1]
		}
		cur.WorkingSets++
		if r.Weight == nil || r.Reps == nil {
			continue
		}
		w, reps := *r.Weight, *r.Reps
		cur.Tonnage += w * float64(reps)

		orm, ok := progression.Estimate1RM(w, reps)
		switch {
		case ok && (cur.Estimated1RM == nil || orm > *cur.Estimated1RM):
			cur.Estimated1RM = &orm
			cur.TopWeight, cur.TopReps = w, reps
		case cur.Estimated1RM == nil && w > cur.TopWeight:
			cur.TopWeight, cur.TopReps = w, reps
		}
	}
	return result
}

// GetExerciseProgression returns per-session top sets of the named exercise,
// oldest first. Warmup and bodyweight sets are excluded.
func (db *DB) GetExerciseProgression(ctx context.Context, name string, start, end time.Time, userID int) ([]ExerciseProgression, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.started_at, s.weight, s.reps
		 FROM workouts w
		 JOIN workout_exercises e ON e.workout_id = w.id
		 JOIN workout_sets s ON s.workout_id = e.workout_id AND s.exercise_order = e.exercise_order
		 WHERE w.user_id = $1 AND e.name = $2
		   AND w.started_at >= $3 AND w.started_at < $4
		   AND NOT s.is_warmup AND NOT s.is_bodyweight
		 ORDER BY w.started_at, w.id, e.exercise_order, s.set_order`,
		userID, name, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying progression for %s: %w", name, err)
	}
	defer rows.Close()

	var result []progressRow
	for rows.Next() {
		var r progressRow
		if err := rows.Scan(&r.WorkoutID, &r.StartedAt, &r.Weight, &r.Reps); err != nil {
			return nil, fmt.Errorf("scanning progression set: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessionProgression(result), nil
}
