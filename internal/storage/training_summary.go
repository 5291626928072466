package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingSummaryPeriod holds aggregated strength volume for one time period.
// Tonnage counts absolute loads only; bodyweight sets add reps but no tonnage.
type TrainingSummaryPeriod struct {
	Period            string  `json:"period"`
	Sessions          int     `json:"sessions"`
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	Tonnage           float64 `json:"tonnage"`
	AvgSetsPerSession float64 `json:"avg_sets_per_session"`
}

// GetTrainingSummary returns aggregated working-set volume per period.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]TrainingSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, w.started_at)::date AS period,
		        COUNT(DISTINCT w.id)::int AS sessions,
		        COUNT(s.set_order) FILTER (WHERE NOT s.is_warmup)::int AS working_sets,
		        COALESCE(SUM(s.reps) FILTER (WHERE NOT s.is_warmup), 0)::int AS total_reps,
		        COALESCE(SUM(s.weight * s.reps) FILTER (WHERE NOT s.is_warmup AND NOT s.is_bodyweight), 0) AS tonnage
		 FROM workouts w
		 LEFT JOIN workout_sets s ON s.workout_id = w.id
		 WHERE w.started_at >= $2 AND w.started_at < $3 AND w.user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []TrainingSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.WorkingSets, &p.TotalReps, &p.Tonnage); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Sessions > 0 {
			p.AvgSetsPerSession = float64(p.WorkingSets) / float64(p.Sessions)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week", "weekly":
		return "week"
	case "1 month", "month", "monthly":
		return "month"
	default:
		return "month"
	}
}
