package session

import (
	"context"

	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// Store is the local slot holding the serialized in-progress workout.
// Load returns nil data and a nil error when the slot is empty.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// Sink durably stores finished workouts. Implementations keep completed sets only.
type Sink interface {
	SaveCompletedWorkout(ctx context.Context, cw workout.CompletedWorkout, userID int) (uuid.UUID, error)
}

// HistoryProvider returns the user's last performance of each named exercise.
// Names with no history are absent from the result.
type HistoryProvider interface {
	LastPerformance(ctx context.Context, names []string, userID int) (map[string]workout.PreviousExercise, error)
}

// WorkoutSource looks up a stored workout for repeating it.
type WorkoutSource interface {
	GetCompletedWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (workout.CompletedWorkout, error)
}
