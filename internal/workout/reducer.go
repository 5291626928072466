package workout

import (
	"slices"
	"strconv"
	"strings"

	"github.com/claude/liftlog/internal/progression"
)

// Reducer applies actions to a Workout. Every transition is pure: the input
// state is never modified and an action whose preconditions fail returns the
// input unchanged.
type Reducer struct {
	Estimator
}

// NewReducer returns a Reducer whose estimates follow policy.
func NewReducer(policy progression.Policy) Reducer {
	return Reducer{Estimator: NewEstimator(policy)}
}

var defaultReducer = NewReducer(progression.Default())

// Reduce applies a with the default progression policy.
func Reduce(w Workout, a Action) Workout {
	return defaultReducer.Reduce(w, a)
}

// Reduce returns the state following w after a.
func (r Reducer) Reduce(w Workout, a Action) Workout {
	switch a := a.(type) {
	case FocusField:
		return r.focusField(w, a.ExerciseIndex, a.SetIndex, a.Field)
	case InputDigit:
		return r.inputDigit(w, a.Value)
	case Backspace:
		return r.backspace(w)
	case PlusMinus:
		return r.plusMinus(w, a.Sign)
	case ToggleSign:
		return r.toggleSign(w)
	case ToggleBodyweight:
		return r.toggleBodyweight(w)
	case ToggleWarmup:
		return r.toggleWarmup(w, a.ExerciseIndex, a.SetIndex)
	case ToggleComplete:
		return r.toggleComplete(w, a.ExerciseIndex, a.SetIndex)
	case Next:
		return r.next(w)
	case AddSet:
		return r.addSet(w, a.ExerciseIndex)
	case DeleteSet:
		return r.deleteSet(w, a.ExerciseIndex, a.SetIndex)
	case NavExercise:
		return r.navExercise(w, a.Delta)
	case CollapseKeyboard:
		return collapse(w)
	case AddExerciseNote:
		return updateExerciseNotes(w, a.ExerciseIndex, func(n []string) ([]string, bool) {
			return addNote(n, a.Text)
		})
	case UpdateExerciseNote:
		return updateExerciseNotes(w, a.ExerciseIndex, func(n []string) ([]string, bool) {
			return updateNote(n, a.NoteIndex, a.Text)
		})
	case DeleteExerciseNote:
		return updateExerciseNotes(w, a.ExerciseIndex, func(n []string) ([]string, bool) {
			return deleteNote(n, a.NoteIndex)
		})
	case ReorderExerciseNote:
		return updateExerciseNotes(w, a.ExerciseIndex, func(n []string) ([]string, bool) {
			return moveNote(n, a.From, a.To)
		})
	case AddWorkoutNote:
		return updateWorkoutNotes(w, func(n []string) ([]string, bool) {
			return addNote(n, a.Text)
		})
	case UpdateWorkoutNote:
		return updateWorkoutNotes(w, func(n []string) ([]string, bool) {
			return updateNote(n, a.NoteIndex, a.Text)
		})
	case DeleteWorkoutNote:
		return updateWorkoutNotes(w, func(n []string) ([]string, bool) {
			return deleteNote(n, a.NoteIndex)
		})
	case ReorderWorkoutNote:
		return updateWorkoutNotes(w, func(n []string) ([]string, bool) {
			return moveNote(n, a.From, a.To)
		})
	case ReplaceState:
		return a.State
	}
	return w
}

// updateSet returns a copy of w whose set at (ei, si) is replaced by fn's
// result. Only the touched exercise and its set slice are copied.
func updateSet(w Workout, ei, si int, fn func(Set) Set) Workout {
	exercises := slices.Clone(w.Exercises)
	ex := exercises[ei]
	ex.Sets = slices.Clone(ex.Sets)
	ex.Sets[si] = fn(ex.Sets[si])
	exercises[ei] = ex
	w.Exercises = exercises
	return w
}

func collapse(w Workout) Workout {
	w.ActiveField = ActiveField{}
	w.InputValue = ""
	w.IsFirstInteraction = false
	return w
}

// seed returns the buffer text for a freshly focused field.
func (r Reducer) seed(w Workout, ei, si int, field Field) string {
	ex := w.Exercises[ei]
	s := ex.Sets[si]
	switch field {
	case FieldWeight:
		if s.IsBodyweight() {
			if s.Weight == nil {
				return "0"
			}
			return formatWeight(*s.Weight)
		}
		return formatWeightPtr(r.DisplayWeight(ex, si))
	case FieldReps:
		return formatRepsPtr(r.DisplayReps(ex, si))
	}
	return ""
}

func (r Reducer) focusField(w Workout, ei, si int, field Field) Workout {
	if field != FieldWeight && field != FieldReps {
		return w
	}
	if _, ok := w.set(ei, si); !ok {
		return w
	}
	w.ActiveField = ActiveField{ExerciseIndex: ei, SetIndex: si, Field: field}
	w.InputValue = r.seed(w, ei, si, field)
	w.IsFirstInteraction = true
	return w
}

func parseWeight(buf string) *float64 {
	v, err := strconv.ParseFloat(buf, 64)
	if err != nil {
		return nil
	}
	if v == 0 {
		v = 0
	}
	return &v
}

func parseReps(buf string) *int {
	v, err := strconv.Atoi(buf)
	if err != nil {
		return nil
	}
	return &v
}

// writeBuffer stores buf as the active field's explicit value.
func writeBuffer(w Workout, buf string) Workout {
	af := w.ActiveField
	w = updateSet(w, af.ExerciseIndex, af.SetIndex, func(s Set) Set {
		switch af.Field {
		case FieldWeight:
			s.Weight = parseWeight(buf)
			s.WeightExplicit = true
		case FieldReps:
			s.Reps = parseReps(buf)
			s.RepsExplicit = true
		}
		return s
	})
	w.InputValue = buf
	w.IsFirstInteraction = false
	return w
}

// clearField resets the active field to an unentered value.
func clearField(w Workout, buf string) Workout {
	af := w.ActiveField
	w = updateSet(w, af.ExerciseIndex, af.SetIndex, func(s Set) Set {
		switch af.Field {
		case FieldWeight:
			s.Weight = nil
			s.WeightExplicit = false
		case FieldReps:
			s.Reps = nil
			s.RepsExplicit = false
		}
		return s
	})
	w.InputValue = buf
	w.IsFirstInteraction = false
	return w
}

func isKeypadDigit(v string) bool {
	return len(v) == 1 && v[0] >= '0' && v[0] <= '9'
}

func (r Reducer) inputDigit(w Workout, value string) Workout {
	if _, ok := w.ActiveSet(); !ok {
		return w
	}
	field := w.ActiveField.Field
	buf := w.InputValue
	if w.IsFirstInteraction {
		buf = ""
	}

	switch {
	case value == ".":
		if field != FieldWeight || strings.Contains(buf, ".") {
			return w
		}
		if buf == "" || buf == "-" {
			buf += "0"
		}
		buf += "."
	case isKeypadDigit(value):
		if field == FieldWeight {
			if i := strings.IndexByte(buf, '.'); i >= 0 && len(buf)-i-1 >= 1 {
				return w
			}
		}
		switch buf {
		case "0":
			buf = ""
		case "-0":
			buf = "-"
		}
		buf += value
	default:
		return w
	}
	return writeBuffer(w, buf)
}

func (r Reducer) backspace(w Workout) Workout {
	if _, ok := w.ActiveSet(); !ok {
		return w
	}
	if w.IsFirstInteraction {
		return clearField(w, "")
	}
	buf := w.InputValue
	if buf != "" {
		buf = buf[:len(buf)-1]
	}
	if buf == "" || buf == "-" {
		return clearField(w, buf)
	}
	return writeBuffer(w, buf)
}

func (r Reducer) plusMinus(w Workout, sign int) Workout {
	if _, ok := w.ActiveSet(); !ok || w.ActiveField.Field != FieldWeight {
		return w
	}
	if sign == 0 {
		return w
	}
	step := r.Policy.Increment()
	if sign < 0 {
		step = -step
	}
	var cur float64
	if v := parseWeight(w.InputValue); v != nil {
		cur = *v
	}
	next := progression.RoundToStep(cur+step, r.Policy.Increment())
	w = writeBuffer(w, formatWeight(next))
	w.IsFirstInteraction = true
	return w
}

func (r Reducer) toggleSign(w Workout) Workout {
	if _, ok := w.ActiveSet(); !ok || w.ActiveField.Field != FieldWeight {
		return w
	}
	buf := w.InputValue
	if rest, ok := strings.CutPrefix(buf, "-"); ok {
		buf = rest
	} else {
		if buf == "" {
			buf = "0"
		}
		buf = "-" + buf
	}
	if buf == "" || buf == "-" {
		return clearField(w, buf)
	}
	return writeBuffer(w, buf)
}

func (r Reducer) toggleBodyweight(w Workout) Workout {
	if _, ok := w.ActiveSet(); !ok || w.ActiveField.Field != FieldWeight {
		return w
	}
	af := w.ActiveField
	w = updateSet(w, af.ExerciseIndex, af.SetIndex, func(s Set) Set {
		if s.IsBodyweight() {
			s.WeightModifier = ""
			if s.Weight != nil && *s.Weight < 0 {
				s.Weight = fptr(-*s.Weight)
			}
		} else {
			s.WeightModifier = WeightModifierBodyweight
			s.Weight = fptr(0)
		}
		s.WeightExplicit = true
		return s
	})
	w.InputValue = r.seed(w, af.ExerciseIndex, af.SetIndex, FieldWeight)
	w.IsFirstInteraction = true
	return w
}

func (r Reducer) toggleWarmup(w Workout, ei, si int) Workout {
	if _, ok := w.set(ei, si); !ok {
		return w
	}
	return updateSet(w, ei, si, func(s Set) Set {
		if s.IsWarmup() {
			s.Modifier = ""
		} else {
			s.Modifier = ModifierWarmup
		}
		return s
	})
}

// completeSet marks the set completed, freezing every non-explicit field to
// the value currently displayed for it.
func (r Reducer) completeSet(w Workout, ei, si int) Workout {
	ex := w.Exercises[ei]
	weight := r.DisplayWeight(ex, si)
	reps := r.DisplayReps(ex, si)
	return updateSet(w, ei, si, func(s Set) Set {
		if !s.WeightExplicit {
			s.Weight = weight
		}
		if !s.RepsExplicit {
			s.Reps = reps
		}
		s.WeightExplicit = true
		s.RepsExplicit = true
		s.Completed = true
		return s
	})
}

func (r Reducer) toggleComplete(w Workout, ei, si int) Workout {
	s, ok := w.set(ei, si)
	if !ok {
		return w
	}
	if s.Completed {
		return updateSet(w, ei, si, func(s Set) Set {
			s.Completed = false
			return s
		})
	}
	return r.completeSet(w, ei, si)
}

// next on reps completes the set but, unlike TOGGLE_COMPLETE, never un-completes it.
func (r Reducer) next(w Workout) Workout {
	s, ok := w.ActiveSet()
	if !ok {
		return w
	}
	af := w.ActiveField
	switch af.Field {
	case FieldWeight:
		return r.focusField(w, af.ExerciseIndex, af.SetIndex, FieldReps)
	case FieldReps:
		if !s.Completed {
			w = r.completeSet(w, af.ExerciseIndex, af.SetIndex)
		}
		if af.SetIndex+1 < len(w.Exercises[af.ExerciseIndex].Sets) {
			return r.focusField(w, af.ExerciseIndex, af.SetIndex+1, FieldWeight)
		}
		return collapse(w)
	}
	return w
}

func (r Reducer) addSet(w Workout, ei int) Workout {
	if ei < 0 || ei >= len(w.Exercises) {
		return w
	}
	exercises := slices.Clone(w.Exercises)
	ex := exercises[ei]
	s := Set{}
	if idx := len(ex.Sets); idx < len(ex.PreviousSets) {
		s.PrevWeight = cloneFloat(ex.PreviousSets[idx].Weight)
		s.PrevReps = cloneInt(ex.PreviousSets[idx].Reps)
	}
	ex.Sets = append(slices.Clone(ex.Sets), s)
	exercises[ei] = ex
	w.Exercises = exercises
	return w
}

// deleteSet removes a set by position. Remaining sets keep their own
// prev snapshots; rank-based lookups shift with the new positions.
func (r Reducer) deleteSet(w Workout, ei, si int) Workout {
	if _, ok := w.set(ei, si); !ok {
		return w
	}
	exercises := slices.Clone(w.Exercises)
	ex := exercises[ei]
	ex.Sets = slices.Delete(slices.Clone(ex.Sets), si, si+1)
	exercises[ei] = ex
	w.Exercises = exercises

	if af := w.ActiveField; af.Active() && af.ExerciseIndex == ei {
		switch {
		case af.SetIndex == si:
			return collapse(w)
		case af.SetIndex > si:
			w.ActiveField.SetIndex--
		}
	}
	return w
}

func (r Reducer) navExercise(w Workout, delta int) Workout {
	target := w.CurrentExerciseIndex + delta
	if target < 0 || target >= len(w.Exercises) {
		return w
	}
	w.CurrentExerciseIndex = target
	return collapse(w)
}
