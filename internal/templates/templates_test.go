package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/liftlog/internal/workout"
)

const sample = `
templates:
  - name: Push A
    exercises:
      - name: Bench Press
        sets:
          - {weight: 45, reps: 10, warmup: true}
          - {weight: 135, reps: 8}
          - {weight: 135, reps: 8}
      - name: Dips
        sets:
          - {weight: -20, reps: 8, bodyweight: true}
  - name: Legs
    exercises:
      - name: Squat
        sets:
          - {reps: 5}
`

// TestLoadFile verifies that a template file on disk is parsed and listed by name.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	list := lib.List()
	if len(list) != 2 || list[0].Name != "Legs" || list[1].Name != "Push A" {
		t.Fatalf("List() = %+v, want [Legs, Push A]", list)
	}

	push, err := lib.Get("Push A")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(push.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(push.Exercises))
	}
}

// TestDefaults checks that warmup and bodyweight flags survive into the
// session's previous-performance input.
func TestDefaults(t *testing.T) {
	lib, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	push, _ := lib.Get("Push A")
	prev := push.Defaults()

	bench := prev[0]
	if bench.Name != "Bench Press" || len(bench.Sets) != 3 {
		t.Fatalf("bench = %+v", bench)
	}
	if !bench.Sets[0].IsWarmup || bench.Sets[0].Modifier != workout.ModifierWarmup {
		t.Errorf("first bench set should be a warmup")
	}
	if *bench.Sets[1].Weight != 135 || *bench.Sets[1].Reps != 8 {
		t.Errorf("working set = %v x %v, want 135 x 8", *bench.Sets[1].Weight, *bench.Sets[1].Reps)
	}
	dips := prev[1].Sets[0]
	if dips.WeightModifier != workout.WeightModifierBodyweight || *dips.Weight != -20 {
		t.Errorf("dips = %+v, want assisted bodyweight -20", dips)
	}

	legs, _ := lib.Get("Legs")
	if s := legs.Defaults()[0].Sets[0]; s.Weight != nil || *s.Reps != 5 {
		t.Errorf("squat default = %+v, want nil weight and 5 reps", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"no name":         "templates:\n  - exercises: [{name: Row}]\n",
		"no exercises":    "templates:\n  - name: Empty\n",
		"unnamed ex":      "templates:\n  - name: X\n    exercises: [{sets: []}]\n",
		"negative weight": "templates:\n  - name: X\n    exercises: [{name: Row, sets: [{weight: -5, reps: 5}]}]\n",
		"duplicate":       "templates:\n  - name: X\n    exercises: [{name: Row}]\n  - name: X\n    exercises: [{name: Row}]\n",
		"bad yaml":        "templates: [",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	lib, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}
