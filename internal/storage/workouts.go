package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkoutRecord is a stored workout with its identity.
type WorkoutRecord struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source"`
	workout.CompletedWorkout
}

// InsertWorkout stores cw as given, in one transaction. A workout with the same
// user, start time and name is not inserted again; its existing ID is returned
// with inserted=false.
func (db *DB) InsertWorkout(ctx context.Context, cw workout.CompletedWorkout, source string, userID int) (id uuid.UUID, inserted bool, err error) {
	id = uuid.New()
	err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, name, started_at, completed_at, duration_sec, note, source)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (user_id, started_at, name) DO NOTHING`,
			id, userID, cw.Name, cw.StartedAt, cw.CompletedAt, cw.DurationSeconds, cw.Note, source)
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return tx.QueryRow(ctx,
				`SELECT id FROM workouts WHERE user_id = $1 AND started_at = $2 AND name = $3`,
				userID, cw.StartedAt, cw.Name).Scan(&id)
		}
		inserted = true

		batch := &pgx.Batch{}
		for _, ex := range cw.Exercises {
			notes := ex.Notes
			if notes == nil {
				notes = []string{}
			}
			batch.Queue(
				`INSERT INTO workout_exercises (workout_id, exercise_order, name, notes) VALUES ($1,$2,$3,$4)`,
				id, ex.Order, ex.Name, notes)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting exercises: %w", err)
		}

		if rows := setRows(id, cw); len(rows) > 0 {
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"workout_sets"}, setColumns, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("inserting sets: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, inserted, nil
}

// SaveCompletedWorkout persists a finished session, keeping completed sets
// only. Saving the same workout twice returns the first save's ID.
func (db *DB) SaveCompletedWorkout(ctx context.Context, cw workout.CompletedWorkout, userID int) (uuid.UUID, error) {
	id, _, err := db.InsertWorkout(ctx, cw.CompletedOnly(), SourceSession, userID)
	return id, err
}

// DeleteWorkoutsAt removes a user's workouts from source that started at t.
func (db *DB) DeleteWorkoutsAt(ctx context.Context, t time.Time, source string, userID int) error {
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE user_id = $1 AND started_at = $2 AND source = $3`,
		userID, t, source)
	if err != nil {
		return fmt.Errorf("deleting workouts at %s: %w", t.Format(time.RFC3339), err)
	}
	return nil
}

const workoutColumns = `id, source, name, started_at, completed_at, duration_sec, note`

func scanWorkout(row pgx.Row) (WorkoutRecord, error) {
	var rec WorkoutRecord
	err := row.Scan(&rec.ID, &rec.Source, &rec.Name, &rec.StartedAt, &rec.CompletedAt,
		&rec.DurationSeconds, &rec.Note)
	if err != nil {
		return rec, err
	}
	rec.Date = rec.StartedAt.UTC().Format(time.RFC3339)
	rec.Exercises = []workout.CompletedExercise{}
	return rec, nil
}

// ListWorkouts retrieves workouts started in [start, end), newest first,
// with their exercises and sets.
func (db *DB) ListWorkouts(ctx context.Context, start, end time.Time, userID int) ([]WorkoutRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE started_at >= $1 AND started_at < $2 AND user_id = $3
		 ORDER BY started_at DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []WorkoutRecord
	for rows.Next() {
		rec, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.attachExercises(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetWorkout retrieves a single workout by ID. Returns ErrNotFound when the
// workout does not exist or belongs to another user.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*WorkoutRecord, error) {
	rec, err := scanWorkout(db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID))
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", workoutID, notFound(err))
	}
	recs := []WorkoutRecord{rec}
	if err := db.attachExercises(ctx, recs); err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// GetCompletedWorkout is GetWorkout without the storage identity.
func (db *DB) GetCompletedWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (workout.CompletedWorkout, error) {
	rec, err := db.GetWorkout(ctx, workoutID, userID)
	if err != nil {
		return workout.CompletedWorkout{}, err
	}
	return rec.CompletedWorkout, nil
}

// DeleteWorkout removes a workout. Returns ErrNotFound if nothing was deleted.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout %s: %w", workoutID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// attachExercises loads exercises and sets for recs in two queries.
func (db *DB) attachExercises(ctx context.Context, recs []WorkoutRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(recs))
	byID := make(map[uuid.UUID]*WorkoutRecord, len(recs))
	for i := range recs {
		ids[i] = recs[i].ID
		byID[recs[i].ID] = &recs[i]
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, exercise_order, name, notes
		 FROM workout_exercises
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, exercise_order`, ids)
	if err != nil {
		return fmt.Errorf("querying exercises: %w", err)
	}
	defer exRows.Close()

	type exKey struct {
		workout uuid.UUID
		order   int
	}
	index := make(map[exKey]int)
	for exRows.Next() {
		var wid uuid.UUID
		ex := workout.CompletedExercise{Sets: []workout.CompletedSet{}}
		if err := exRows.Scan(&wid, &ex.Order, &ex.Name, &ex.Notes); err != nil {
			return fmt.Errorf("scanning exercise: %w", err)
		}
		rec := byID[wid]
		index[exKey{wid, ex.Order}] = len(rec.Exercises)
		rec.Exercises = append(rec.Exercises, ex)
	}
	if err := exRows.Err(); err != nil {
		return err
	}

	sRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, exercise_order, set_order, weight, reps, is_warmup, is_bodyweight
		 FROM workout_sets
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, exercise_order, set_order`, ids)
	if err != nil {
		return fmt.Errorf("querying sets: %w", err)
	}
	defer sRows.Close()

	for sRows.Next() {
		var r setRow
		if err := sRows.Scan(&r.WorkoutID, &r.ExerciseOrder, &r.SetOrder, &r.Weight, &r.Reps,
			&r.IsWarmup, &r.IsBodyweight); err != nil {
			return fmt.Errorf("scanning set: %w", err)
		}
		i, ok := index[exKey{r.WorkoutID, r.ExerciseOrder}]
		if !ok {
			continue
		}
		rec := byID[r.WorkoutID]
		rec.Exercises[i].Sets = append(rec.Exercises[i].Sets, r.completed())
	}
	return sRows.Err()
}
