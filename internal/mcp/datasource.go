package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context, start, end time.Time, userID int) ([]storage.WorkoutRecord, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*storage.WorkoutRecord, error)
	LastPerformance(ctx context.Context, names []string, userID int) (map[string]workout.PreviousExercise, error)
	GetExerciseProgression(ctx context.Context, name string, start, end time.Time, userID int) ([]storage.ExerciseProgression, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	// CurrentSession returns nil when the user has no workout in progress.
	CurrentSession(ctx context.Context, userID int) (*workout.View, error)
}

type sessionViewer interface {
	View(ctx context.Context, userID int) (workout.View, string, error)
}

// Local serves tools straight from the database and the session manager.
type Local struct {
	*storage.DB
	Sessions sessionViewer
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = Local{}

func (l Local) CurrentSession(ctx context.Context, userID int) (*workout.View, error) {
	v, _, err := l.Sessions.View(ctx, userID)
	if errors.Is(err, session.ErrNoActiveSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
