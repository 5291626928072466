package summary

import (
	"testing"

	"github.com/claude/liftlog/internal/workout"
	"github.com/stretchr/testify/assert"
)

func set(weight float64, reps int) workout.CompletedSet {
	return workout.CompletedSet{Weight: &weight, Reps: &reps, Completed: true}
}

func warmup(weight float64, reps int) workout.CompletedSet {
	s := set(weight, reps)
	s.Modifier = workout.ModifierWarmup
	return s
}

func bw(offset float64, reps int) workout.CompletedSet {
	s := set(offset, reps)
	s.WeightModifier = workout.WeightModifierBodyweight
	return s
}

func TestExercise(t *testing.T) {
	tests := []struct {
		name string
		sets []workout.CompletedSet
		want string
	}{
		{
			name: "same weight grouped",
			sets: []workout.CompletedSet{set(135, 8), set(135, 8), set(135, 6)},
			want: "Bench - 135lb:x8,x8,x6",
		},
		{
			name: "mixed weights",
			sets: []workout.CompletedSet{set(135, 8), set(145, 6)},
			want: "Bench - 135lbx8,145lbx6",
		},
		{
			name: "runs and singles",
			sets: []workout.CompletedSet{set(135, 8), set(135, 8), set(145, 6)},
			want: "Bench - 135lb:x8,x8,145lbx6",
		},
		{
			name: "warmups excluded",
			sets: []workout.CompletedSet{warmup(45, 10), warmup(95, 5), set(135, 8)},
			want: "Bench - 135lbx8",
		},
		{
			name: "fractional weight",
			sets: []workout.CompletedSet{set(62.5, 10)},
			want: "Bench - 62.5lbx10",
		},
		{
			name: "incomplete sets skipped",
			sets: []workout.CompletedSet{set(135, 8), {Weight: new(float64), Completed: false}},
			want: "Bench - 135lbx8",
		},
		{
			name: "nothing to report",
			sets: []workout.CompletedSet{warmup(45, 10)},
			want: "Bench",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exercise("Bench", tt.sets))
		})
	}
}

// TestBodyweightLabels covers plain, weighted and assisted bodyweight sets.
func TestBodyweightLabels(t *testing.T) {
	assert.Equal(t, "Dips - BW:x12,x10", Exercise("Dips", []workout.CompletedSet{bw(0, 12), bw(0, 10)}))
	assert.Equal(t, "Dips - BW+10lbx8", Exercise("Dips", []workout.CompletedSet{bw(10, 8)}))
	assert.Equal(t, "Pull-up - BW-15lbx6", Exercise("Pull-up", []workout.CompletedSet{bw(-15, 6)}))
	assert.Equal(t, "Dips - BWx5,BW+10lbx3", Exercise("Dips", []workout.CompletedSet{bw(0, 5), bw(10, 3)}))
}

func TestUnit(t *testing.T) {
	f := New("kg")
	assert.Equal(t, "Squat - 100kg:x5,x5", f.Exercise("Squat", []workout.CompletedSet{set(100, 5), set(100, 5)}))
	assert.Equal(t, DefaultUnit, New("").Unit)
}

func TestWorkout(t *testing.T) {
	cw := workout.CompletedWorkout{
		Exercises: []workout.CompletedExercise{
			{Name: "Bench", Sets: []workout.CompletedSet{warmup(45, 10), set(135, 8)}},
			{Name: "Stretch", Sets: []workout.CompletedSet{warmup(0, 1)}},
			{Name: "Dips", Sets: []workout.CompletedSet{bw(10, 8)}},
		},
	}
	assert.Equal(t, []string{"Bench - 135lbx8", "Dips - BW+10lbx8"}, Workout(cw))
}
