// Package session drives in-progress workouts: it owns one Workout per user,
// runs reducer actions against it, mirrors every state into a local Store for
// crash recovery and hands the finished record to a Sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/keypad"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrActiveSession   = errors.New("a session is already in progress")
)

// RestoreFailedNotice is reported when the stored session could not be decoded.
const RestoreFailedNotice = "failed to restore, starting fresh"

// Manager serializes operations per user. Different users never block each other.
type Manager struct {
	store    Store
	sink     Sink
	history  HistoryProvider
	workouts WorkoutSource
	reducer  workout.Reducer
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	locks  map[int]*sync.Mutex
	active map[int]workout.Workout
}

// New creates a Manager. history and workouts may be nil.
func New(store Store, sink Sink, history HistoryProvider, workouts WorkoutSource, policy progression.Policy, log *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		sink:     sink,
		history:  history,
		workouts: workouts,
		reducer:  workout.NewReducer(policy),
		log:      log,
		now:      time.Now,
		locks:    make(map[int]*sync.Mutex),
		active:   make(map[int]workout.Workout),
	}
}

// SetClock replaces the time source used for start and finish times.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Reducer returns the reducer sessions are driven with.
func (m *Manager) Reducer() workout.Reducer {
	return m.reducer
}

// Project renders w with the manager's progression policy.
func (m *Manager) Project(w workout.Workout) workout.View {
	return m.reducer.Project(w)
}

func slotKey(userID int) string {
	return fmt.Sprintf("workout-session/%d", userID)
}

func (m *Manager) lock(userID int) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (m *Manager) cached(userID int) (workout.Workout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.active[userID]
	return w, ok
}

func (m *Manager) setCached(userID int, w workout.Workout) {
	m.mu.Lock()
	m.active[userID] = w
	m.mu.Unlock()
}

func (m *Manager) dropCached(userID int) {
	m.mu.Lock()
	delete(m.active, userID)
	m.mu.Unlock()
}

// current returns the user's workout, reading the local slot the first time.
// A slot that fails to decode is cleared and reported through notice.
// Caller holds the user lock.
func (m *Manager) current(ctx context.Context, userID int) (w workout.Workout, ok bool, notice string, err error) {
	if w, ok := m.cached(userID); ok {
		return w, true, "", nil
	}
	data, err := m.store.Load(ctx, slotKey(userID))
	if err != nil {
		return workout.Workout{}, false, "", fmt.Errorf("loading session: %w", err)
	}
	if data == nil {
		return workout.Workout{}, false, "", nil
	}
	w, err = workout.DecodeState(data)
	if err != nil {
		m.log.Warn("discarding unreadable session", "user_id", userID, "error", err)
		if err := m.store.Clear(ctx, slotKey(userID)); err != nil {
			m.log.Warn("clearing unreadable session", "user_id", userID, "error", err)
		}
		return workout.Workout{}, false, RestoreFailedNotice, nil
	}
	m.setCached(userID, w)
	return w, true, "", nil
}

// persist writes w to the local slot. A failed write is logged, never returned.
func (m *Manager) persist(ctx context.Context, userID int, w workout.Workout) {
	data, err := workout.EncodeState(w)
	if err != nil {
		m.log.Warn("encoding session", "user_id", userID, "error", err)
		return
	}
	if err := m.store.Save(ctx, slotKey(userID), data); err != nil {
		m.log.Warn("persisting session", "user_id", userID, "error", err)
	}
}

// Restore returns the user's in-progress workout. When the stored copy was
// unreadable, err is ErrNoActiveSession and notice is RestoreFailedNotice.
func (m *Manager) Restore(ctx context.Context, userID int) (workout.Workout, string, error) {
	defer m.lock(userID)()
	w, ok, notice, err := m.current(ctx, userID)
	if err != nil {
		return workout.Workout{}, "", err
	}
	if !ok {
		return workout.Workout{}, notice, ErrNoActiveSession
	}
	return w, "", nil
}

// View returns the display projection of the user's workout.
func (m *Manager) View(ctx context.Context, userID int) (workout.View, string, error) {
	w, notice, err := m.Restore(ctx, userID)
	if err != nil {
		return workout.View{}, notice, err
	}
	return m.reducer.Project(w), "", nil
}

func (m *Manager) begin(ctx context.Context, userID int, name string, prev []workout.PreviousExercise) (workout.Workout, error) {
	_, ok, _, err := m.current(ctx, userID)
	if err != nil {
		return workout.Workout{}, err
	}
	if ok {
		return workout.Workout{}, ErrActiveSession
	}
	w := workout.New(name, m.now().UTC(), workout.InitialiseExercises(prev))
	m.setCached(userID, w)
	m.persist(ctx, userID, w)
	m.log.Info("session started", "user_id", userID, "name", name, "exercises", len(w.Exercises))
	return w, nil
}

func (m *Manager) lastPerformance(ctx context.Context, userID int, names []string) (map[string]workout.PreviousExercise, error) {
	if m.history == nil || len(names) == 0 {
		return nil, nil
	}
	hist, err := m.history.LastPerformance(ctx, names, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return hist, nil
}

// Start begins an ad-hoc workout of the named exercises, seeded from history.
func (m *Manager) Start(ctx context.Context, userID int, name string, exercises []string) (workout.Workout, error) {
	defer m.lock(userID)()
	hist, err := m.lastPerformance(ctx, userID, exercises)
	if err != nil {
		return workout.Workout{}, err
	}
	prev := make([]workout.PreviousExercise, 0, len(exercises))
	for _, ex := range exercises {
		if h, ok := hist[ex]; ok {
			prev = append(prev, workout.PreviousExercise{Name: ex, Sets: h.Sets})
			continue
		}
		prev = append(prev, workout.PreviousExercise{Name: ex})
	}
	return m.begin(ctx, userID, name, prev)
}

// StartFromTemplate begins a workout from template defaults. An exercise the
// user has performed before starts from that performance instead.
func (m *Manager) StartFromTemplate(ctx context.Context, userID int, name string, defaults []workout.PreviousExercise) (workout.Workout, error) {
	defer m.lock(userID)()
	names := make([]string, len(defaults))
	for i, d := range defaults {
		names[i] = d.Name
	}
	hist, err := m.lastPerformance(ctx, userID, names)
	if err != nil {
		return workout.Workout{}, err
	}
	prev := make([]workout.PreviousExercise, len(defaults))
	for i, d := range defaults {
		prev[i] = d
		if h, ok := hist[d.Name]; ok && len(h.Sets) > 0 {
			prev[i] = workout.PreviousExercise{Name: d.Name, Sets: h.Sets}
		}
	}
	return m.begin(ctx, userID, name, prev)
}

// Repeat begins a workout shaped like a stored one, using its sets as the
// previous performance.
func (m *Manager) Repeat(ctx context.Context, userID int, workoutID uuid.UUID) (workout.Workout, error) {
	if m.workouts == nil {
		return workout.Workout{}, errors.New("repeating workouts is not configured")
	}
	defer m.lock(userID)()
	cw, err := m.workouts.GetCompletedWorkout(ctx, workoutID, userID)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("loading workout %s: %w", workoutID, err)
	}
	return m.begin(ctx, userID, cw.Name, cw.PreviousExercises())
}

// Dispatch applies actions in order and persists the resulting state.
func (m *Manager) Dispatch(ctx context.Context, userID int, actions ...workout.Action) (workout.Workout, error) {
	defer m.lock(userID)()
	w, ok, _, err := m.current(ctx, userID)
	if err != nil {
		return workout.Workout{}, err
	}
	if !ok {
		return workout.Workout{}, ErrNoActiveSession
	}
	for _, a := range actions {
		w = m.reducer.Reduce(w, a)
	}
	m.setCached(userID, w)
	m.persist(ctx, userID, w)
	return w, nil
}

// Press dispatches keypad tokens. Nothing is applied if any token is unknown.
func (m *Manager) Press(ctx context.Context, userID int, keys []string) (workout.Workout, error) {
	actions, err := keypad.Actions(keys)
	if err != nil {
		return workout.Workout{}, err
	}
	return m.Dispatch(ctx, userID, actions...)
}

// Finish finalizes the workout and hands it to the sink. The local copy is
// discarded only after the sink succeeds; on failure the session is left
// untouched so the caller can retry.
func (m *Manager) Finish(ctx context.Context, userID int, name, notes string, durationSeconds *int) (uuid.UUID, workout.CompletedWorkout, error) {
	defer m.lock(userID)()
	w, ok, _, err := m.current(ctx, userID)
	if err != nil {
		return uuid.Nil, workout.CompletedWorkout{}, err
	}
	if !ok {
		return uuid.Nil, workout.CompletedWorkout{}, ErrNoActiveSession
	}

	cw := workout.Finalize(w, name, notes, durationSeconds, m.now().UTC())
	id, err := m.sink.SaveCompletedWorkout(ctx, cw, userID)
	if err != nil {
		return uuid.Nil, cw, fmt.Errorf("saving workout: %w", err)
	}

	m.dropCached(userID)
	if err := m.store.Clear(ctx, slotKey(userID)); err != nil {
		m.log.Warn("clearing finished session", "user_id", userID, "error", err)
	}
	m.log.Info("session finished", "user_id", userID, "workout_id", id, "exercises", len(cw.Exercises))
	return id, cw, nil
}

// Discard drops the in-progress workout without saving it.
func (m *Manager) Discard(ctx context.Context, userID int) error {
	defer m.lock(userID)()
	m.dropCached(userID)
	if err := m.store.Clear(ctx, slotKey(userID)); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
