// Package workout holds the in-progress workout session: its data model, the
// estimation engine that derives displayed weight/reps, and the reducer that
// moves the session from one immutable state to the next.
package workout

import (
	"strconv"
	"time"
)

// Modifier tags a set's role within the exercise.
type Modifier string

// ModifierWarmup marks a set excluded from working-set progression.
const ModifierWarmup Modifier = "warmup"

// WeightModifier changes how a set's weight is interpreted.
type WeightModifier string

// WeightModifierBodyweight makes weight a signed offset from bodyweight.
const WeightModifierBodyweight WeightModifier = "bodyweight"

// Field names the editable cell of a set.
type Field string

const (
	FieldNone   Field = ""
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// Set is a single set within an exercise. It is identified by its position.
type Set struct {
	Weight         *float64       `json:"weight"`
	Reps           *int           `json:"reps"`
	Completed      bool           `json:"completed"`
	WeightExplicit bool           `json:"weightExplicit"`
	RepsExplicit   bool           `json:"repsExplicit"`
	PrevWeight     *float64       `json:"prevWeight"`
	PrevReps       *int           `json:"prevReps"`
	Modifier       Modifier       `json:"modifier,omitempty"`
	WeightModifier WeightModifier `json:"weightModifier,omitempty"`
}

// IsWarmup reports whether the set is a warmup set.
func (s Set) IsWarmup() bool { return s.Modifier == ModifierWarmup }

// IsBodyweight reports whether the set's weight is a bodyweight offset.
func (s Set) IsBodyweight() bool { return s.WeightModifier == WeightModifierBodyweight }

// PreviousSet is one set of the user's previous performance of an exercise.
type PreviousSet struct {
	Weight         *float64       `json:"weight"`
	Reps           *int           `json:"reps"`
	Modifier       Modifier       `json:"modifier,omitempty"`
	WeightModifier WeightModifier `json:"weightModifier,omitempty"`
}

// IsWarmup reports whether the previous set was a warmup set.
func (p PreviousSet) IsWarmup() bool { return p.Modifier == ModifierWarmup }

// Exercise is an ordered sequence of sets plus the previous-performance snapshot.
type Exercise struct {
	Name         string        `json:"name"`
	Sets         []Set         `json:"sets"`
	PreviousSets []PreviousSet `json:"previousSets"`
	Notes        []string      `json:"notes"`
}

// ActiveField points at the cell that currently owns the keypad.
type ActiveField struct {
	ExerciseIndex int   `json:"exerciseIndex"`
	SetIndex      int   `json:"setIndex"`
	Field         Field `json:"field"`
}

// Active reports whether any field is focused.
func (a ActiveField) Active() bool { return a.Field != FieldNone }

// Workout is the aggregate root of an in-progress session, including the
// transient keypad state.
type Workout struct {
	Name                 string      `json:"name"`
	StartTime            time.Time   `json:"startTime"`
	Exercises            []Exercise  `json:"exercises"`
	CurrentExerciseIndex int         `json:"currentExerciseIndex"`
	Notes                []string    `json:"notes"`
	ActiveField          ActiveField `json:"activeField"`
	InputValue           string      `json:"inputValue"`
	IsFirstInteraction   bool        `json:"isFirstInteraction"`
}

// New creates an empty session started at start.
func New(name string, start time.Time, exercises []Exercise) Workout {
	return Workout{
		Name:      name,
		StartTime: start,
		Exercises: exercises,
	}
}

// set returns the set at (ei, si) if it exists.
func (w Workout) set(ei, si int) (Set, bool) {
	if ei < 0 || ei >= len(w.Exercises) {
		return Set{}, false
	}
	sets := w.Exercises[ei].Sets
	if si < 0 || si >= len(sets) {
		return Set{}, false
	}
	return sets[si], true
}

// ActiveSet returns the set owning the keypad, if any.
func (w Workout) ActiveSet() (Set, bool) {
	if !w.ActiveField.Active() {
		return Set{}, false
	}
	return w.set(w.ActiveField.ExerciseIndex, w.ActiveField.SetIndex)
}

func formatWeight(v float64) string {
	if v == 0 {
		// avoid "-0"
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatWeightPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatWeight(*v)
}

func formatRepsPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return fptr(*v)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return iptr(*v)
}
