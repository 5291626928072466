package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored workouts.
type DataStats struct {
	TotalWorkouts  int64          `json:"total_workouts"`
	TotalSets      int64          `json:"total_sets"`
	EarliestData   *time.Time     `json:"earliest_data"`
	LatestData     *time.Time     `json:"latest_data"`
	WorkoutsBySrc  map[string]int `json:"workouts_by_source"`
	ExerciseCounts []ExerciseStat `json:"exercises"`
}

// ExerciseStat holds summary stats for a single exercise name.
type ExerciseStat struct {
	Name          string    `json:"name"`
	Sessions      int64     `json:"sessions"`
	WorkingSets   int64     `json:"working_sets"`
	LastPerformed time.Time `json:"last_performed"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{WorkoutsBySrc: map[string]int{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(started_at), MAX(started_at) FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sets s JOIN workouts w ON w.id = s.workout_id WHERE w.user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	srcRows, err := db.Pool.Query(ctx,
		`SELECT source, COUNT(*)::int FROM workouts WHERE user_id = $1 GROUP BY source`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by source: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var src string
		var n int
		if err := srcRows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		stats.WorkoutsBySrc[src] = n
	}
	if err := srcRows.Err(); err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT e.name,
		        COUNT(DISTINCT e.workout_id),
		        COUNT(s.set_order) FILTER (WHERE NOT s.is_warmup),
		        MAX(w.started_at)
		 FROM workout_exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 LEFT JOIN workout_sets s ON s.workout_id = e.workout_id AND s.exercise_order = e.exercise_order
		 WHERE w.user_id = $1
		 GROUP BY e.name
		 ORDER BY COUNT(DISTINCT e.workout_id) DESC, e.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.Name, &s.Sessions, &s.WorkingSets, &s.LastPerformed); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.ExerciseCounts = append(stats.ExerciseCounts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
