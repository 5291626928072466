package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

var setColumns = []string{"workout_id", "exercise_order", "set_order", "weight", "reps", "is_warmup", "is_bodyweight"}

// setRow is one row of the workout_sets table.
type setRow struct {
	WorkoutID     uuid.UUID
	ExerciseOrder int
	SetOrder      int
	Weight        *float64
	Reps          *int
	IsWarmup      bool
	IsBodyweight  bool
}

// Stored sets are always completed; only completed sets reach the table
// through SaveCompletedWorkout.
func (r setRow) completed() workout.CompletedSet {
	s := workout.CompletedSet{
		Order:     r.SetOrder,
		Weight:    r.Weight,
		Reps:      r.Reps,
		Completed: true,
	}
	if r.IsWarmup {
		s.Modifier = workout.ModifierWarmup
	}
	if r.IsBodyweight {
		s.WeightModifier = workout.WeightModifierBodyweight
	}
	return s
}

// setRows flattens cw into CopyFrom rows, in setColumns order.
func setRows(id uuid.UUID, cw workout.CompletedWorkout) [][]any {
	var rows [][]any
	for _, ex := range cw.Exercises {
		for _, s := range ex.Sets {
			rows = append(rows, []any{
				id, ex.Order, s.Order, s.Weight, s.Reps,
				s.Modifier == workout.ModifierWarmup,
				s.WeightModifier == workout.WeightModifierBodyweight,
			})
		}
	}
	return rows
}

type historyRow struct {
	Name string
	setRow
}

// groupHistory folds rows ordered by name then set order into previous
// exercises keyed by name.
func groupHistory(rows []historyRow) map[string]workout.PreviousExercise {
	out := make(map[string]workout.PreviousExercise)
	for _, r := range rows {
		pe := out[r.Name]
		pe.Name = r.Name
		s := r.completed()
		pe.Sets = append(pe.Sets, workout.HistorySet{
			Weight:         s.Weight,
			Reps:           s.Reps,
			IsWarmup:       r.IsWarmup,
			Modifier:       s.Modifier,
			WeightModifier: s.WeightModifier,
		})
		out[r.Name] = pe
	}
	return out
}

// LastPerformance returns, per exercise name, the sets of the most recent
// workout containing that exercise.
func (db *DB) LastPerformance(ctx context.Context, names []string, userID int) (map[string]workout.PreviousExercise, error) {
	if len(names) == 0 {
		return map[string]workout.PreviousExercise{}, nil
	}
	rows, err := db.Pool.Query(ctx,
		`WITH latest AS (
			SELECT DISTINCT ON (e.name) e.name, e.workout_id, e.exercise_order
			FROM workout_exercises e
			JOIN workouts w ON w.id = e.workout_id
			WHERE w.user_id = $1 AND e.name = ANY($2)
			ORDER BY e.name, w.started_at DESC, e.exercise_order
		)
		SELECT l.name, s.set_order, s.weight, s.reps, s.is_warmup, s.is_bodyweight
		FROM latest l
		JOIN workout_sets s ON s.workout_id = l.workout_id AND s.exercise_order = l.exercise_order
		ORDER BY l.name, s.set_order`,
		userID, names)
	if err != nil {
		return nil, fmt.Errorf("querying last performance: %w", err)
	}
	defer rows.Close()

	var result []historyRow
	for rows.Next() {
		var r historyRow
		if err := rows.Scan(&r.Name, &r.SetOrder, &r.Weight, &r.Reps, &r.IsWarmup, &r.IsBodyweight); err != nil {
			return nil, fmt.Errorf("scanning history set: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupHistory(result), nil
}
