package alpha

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// TestToWorkouts verifies the conversion of parsed sessions into completed
// workouts: every set completed, warmups tagged, "+N" weights as bodyweight.
func TestToWorkouts(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	workouts := ToWorkouts(sessions, "kg")
	if len(workouts) != 2 {
		t.Fatalf("workouts = %d, want 2", len(workouts))
	}

	legs := workouts[0]
	if legs.DurationSeconds == nil || *legs.DurationSeconds != 3720 {
		t.Errorf("duration = %v, want 3720", legs.DurationSeconds)
	}
	if !legs.CompletedAt.Equal(legs.StartedAt.Add(62 * time.Minute)) {
		t.Errorf("completedAt = %v, want start + 62m", legs.CompletedAt)
	}
	if legs.Date != "2026-02-19T04:54:00Z" {
		t.Errorf("date = %q", legs.Date)
	}

	hack := legs.Exercises[0]
	if hack.Order != 1 || hack.Name != "Hack Squats" || len(hack.Sets) != 5 {
		t.Fatalf("hack squats = %+v", hack)
	}
	for i, s := range hack.Sets {
		if !s.Completed || s.Order != i+1 {
			t.Errorf("set %d = %+v, want completed with order %d", i, s, i+1)
		}
	}
	if hack.Sets[0].Modifier != workout.ModifierWarmup || *hack.Sets[0].Weight != 37.5 {
		t.Errorf("first set should be the 37.5 warmup: %+v", hack.Sets[0])
	}
	if hack.Sets[2].Modifier != "" || *hack.Sets[2].Weight != 115 || *hack.Sets[2].Reps != 8 {
		t.Errorf("first working set = %+v, want 115x8", hack.Sets[2])
	}

	hyper := legs.Exercises[2].Sets[1]
	if hyper.WeightModifier != workout.WeightModifierBodyweight || *hyper.Weight != 35 {
		t.Errorf("hyperextension set = %+v, want bodyweight +35", hyper)
	}
}

func TestConvertWeight(t *testing.T) {
	if got := convertWeight(100, "lb"); got != 220.5 {
		t.Errorf("100kg = %v lb, want 220.5", got)
	}
	if got := convertWeight(37.5, "kg"); got != 37.5 {
		t.Errorf("kg passthrough = %v", got)
	}
	if got := convertWeight(20, "LB"); got != 44 {
		t.Errorf("20kg = %v lb, want 44", got)
	}
}

type fakeStore struct {
	deleted  []time.Time
	inserted []workout.CompletedWorkout
	existing map[time.Time]bool
	logs     map[int64]storage.ImportLog
	failAt   int
}

func (f *fakeStore) DeleteWorkoutsAt(_ context.Context, t time.Time, source string, _ int) error {
	if source != storage.SourceAlpha {
		return errors.New("wrong source")
	}
	f.deleted = append(f.deleted, t)
	return nil
}

func (f *fakeStore) InsertWorkout(_ context.Context, cw workout.CompletedWorkout, _ string, _ int) (uuid.UUID, bool, error) {
	if f.failAt > 0 && len(f.inserted)+1 == f.failAt {
		return uuid.Nil, false, errors.New("db down")
	}
	if f.existing[cw.StartedAt] {
		return uuid.New(), false, nil
	}
	f.inserted = append(f.inserted, cw)
	return uuid.New(), true, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	id := int64(len(f.logs) + 1)
	f.logs[id] = l
	return id, nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, id int64, l storage.ImportLog) error {
	f.logs[id] = l
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: map[time.Time]bool{}, logs: map[int64]storage.ImportLog{}}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// TestIngest verifies that each session replaces its previous import and that
// the import log records the outcome.
func TestIngest(t *testing.T) {
	db := newFakeStore()
	p := NewProvider(db, "kg", discard)

	result, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.WorkoutsReceived != 2 || result.WorkoutsInserted != 2 {
		t.Errorf("result = %+v, want 2 received and inserted", result)
	}
	if result.SetsReceived != 28 || result.SetsInserted != 28 {
		t.Errorf("sets = %d/%d, want 28/28", result.SetsReceived, result.SetsInserted)
	}
	if len(db.deleted) != 2 {
		t.Errorf("deleted = %d, want 2", len(db.deleted))
	}

	entry := db.logs[1]
	if entry.Status != storage.ImportSuccess || entry.WorkoutsInserted != 2 || entry.DurationMs == nil {
		t.Errorf("import log = %+v", entry)
	}
}

func TestIngestSkipsLiveSessions(t *testing.T) {
	db := newFakeStore()
	db.existing[time.Date(2026, 2, 17, 5, 4, 0, 0, time.UTC)] = true
	p := NewProvider(db, "kg", discard)

	result, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.WorkoutsInserted != 1 || result.Message == "" {
		t.Errorf("result = %+v, want 1 inserted and a message", result)
	}
}

func TestIngestFailureLogged(t *testing.T) {
	db := newFakeStore()
	db.failAt = 2
	p := NewProvider(db, "kg", discard)

	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1); err == nil {
		t.Fatal("expected error")
	}
	entry := db.logs[1]
	if entry.Status != storage.ImportError || entry.ErrorMessage == nil {
		t.Errorf("import log = %+v, want error status", entry)
	}
	if entry.WorkoutsInserted != 1 {
		t.Errorf("inserted before failure = %d, want 1", entry.WorkoutsInserted)
	}
}
