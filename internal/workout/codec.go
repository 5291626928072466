package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrMalformedState is returned when stored session data fails the shape check.
var ErrMalformedState = errors.New("malformed workout state")

// ErrUnknownAction is returned for an action envelope with an unrecognized type.
var ErrUnknownAction = errors.New("unknown action")

// EncodeState serializes w for the local recovery slot.
func EncodeState(w Workout) ([]byte, error) {
	if w.Exercises == nil {
		w.Exercises = []Exercise{}
	}
	if slices.ContainsFunc(w.Exercises, func(ex Exercise) bool { return ex.Sets == nil }) {
		w.Exercises = slices.Clone(w.Exercises)
		for i := range w.Exercises {
			if w.Exercises[i].Sets == nil {
				w.Exercises[i].Sets = []Set{}
			}
		}
	}
	return json.Marshal(w)
}

// DecodeState parses recovery data, rejecting anything whose structure does
// not match a Workout or whose active field points nowhere.
func DecodeState(data []byte) (Workout, error) {
	if err := checkShape(data); err != nil {
		return Workout{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	var w Workout
	if err := json.Unmarshal(data, &w); err != nil {
		return Workout{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if err := w.Validate(); err != nil {
		return Workout{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return w, nil
}

func checkShape(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return errors.New("state is not an object")
	}
	exercises := root.Get("exercises")
	if !exercises.IsArray() {
		return errors.New("exercises is not an array")
	}
	for i, ex := range exercises.Array() {
		if !ex.IsObject() {
			return fmt.Errorf("exercise %d is not an object", i)
		}
		sets := ex.Get("sets")
		if !sets.IsArray() {
			return fmt.Errorf("exercise %d: sets is not an array", i)
		}
		for j, s := range sets.Array() {
			if !s.IsObject() {
				return fmt.Errorf("exercise %d: set %d is not an object", i, j)
			}
		}
		if ps := ex.Get("previousSets"); ps.Exists() && ps.Type != gjson.Null && !ps.IsArray() {
			return fmt.Errorf("exercise %d: previousSets is not an array", i)
		}
	}
	if af := root.Get("activeField"); af.Exists() && !af.IsObject() {
		return errors.New("activeField is not an object")
	}
	if iv := root.Get("inputValue"); iv.Exists() && iv.Type != gjson.String {
		return errors.New("inputValue is not a string")
	}
	return nil
}

// Validate checks the cross-field invariants of a decoded state.
func (w Workout) Validate() error {
	for i, ex := range w.Exercises {
		for j, s := range ex.Sets {
			if s.Modifier != "" && s.Modifier != ModifierWarmup {
				return fmt.Errorf("exercise %d set %d: unknown modifier %q", i, j, s.Modifier)
			}
			if s.WeightModifier != "" && s.WeightModifier != WeightModifierBodyweight {
				return fmt.Errorf("exercise %d set %d: unknown weight modifier %q", i, j, s.WeightModifier)
			}
		}
	}
	if len(w.Exercises) > 0 && (w.CurrentExerciseIndex < 0 || w.CurrentExerciseIndex >= len(w.Exercises)) {
		return fmt.Errorf("current exercise index %d out of range", w.CurrentExerciseIndex)
	}
	af := w.ActiveField
	switch af.Field {
	case FieldNone:
	case FieldWeight, FieldReps:
		if _, ok := w.set(af.ExerciseIndex, af.SetIndex); !ok {
			return fmt.Errorf("active field points at missing set %d/%d", af.ExerciseIndex, af.SetIndex)
		}
	default:
		return fmt.Errorf("unknown active field %q", af.Field)
	}
	return nil
}

type actionDecoder func([]byte) (Action, error)

func decodeAs[T Action](data []byte) (Action, error) {
	var a T
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return a, nil
}

var actionDecoders = map[string]actionDecoder{
	FocusField{}.Type():          decodeAs[FocusField],
	InputDigit{}.Type():          decodeAs[InputDigit],
	Backspace{}.Type():           decodeAs[Backspace],
	PlusMinus{}.Type():           decodeAs[PlusMinus],
	ToggleSign{}.Type():          decodeAs[ToggleSign],
	ToggleBodyweight{}.Type():    decodeAs[ToggleBodyweight],
	ToggleWarmup{}.Type():        decodeAs[ToggleWarmup],
	ToggleComplete{}.Type():      decodeAs[ToggleComplete],
	Next{}.Type():                decodeAs[Next],
	AddSet{}.Type():              decodeAs[AddSet],
	DeleteSet{}.Type():           decodeAs[DeleteSet],
	NavExercise{}.Type():         decodeAs[NavExercise],
	CollapseKeyboard{}.Type():    decodeAs[CollapseKeyboard],
	AddExerciseNote{}.Type():     decodeAs[AddExerciseNote],
	UpdateExerciseNote{}.Type():  decodeAs[UpdateExerciseNote],
	DeleteExerciseNote{}.Type():  decodeAs[DeleteExerciseNote],
	ReorderExerciseNote{}.Type(): decodeAs[ReorderExerciseNote],
	AddWorkoutNote{}.Type():      decodeAs[AddWorkoutNote],
	UpdateWorkoutNote{}.Type():   decodeAs[UpdateWorkoutNote],
	DeleteWorkoutNote{}.Type():   decodeAs[DeleteWorkoutNote],
	ReorderWorkoutNote{}.Type():  decodeAs[ReorderWorkoutNote],
	ReplaceState{}.Type():        decodeAs[ReplaceState],
}

// DecodeAction parses a {"type": "...", ...} action envelope.
func DecodeAction(data []byte) (Action, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid action JSON")
	}
	typ := gjson.GetBytes(data, "type").String()
	dec, ok := actionDecoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, typ)
	}
	a, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", typ, err)
	}
	if rs, ok := a.(ReplaceState); ok {
		if err := rs.State.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	}
	return a, nil
}

// EncodeAction serializes a into its envelope form.
func EncodeAction(a Action) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", a.Type(), err)
	}
	return sjson.SetBytes(data, "type", a.Type())
}
