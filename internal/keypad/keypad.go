// Package keypad maps on-screen keypad tokens to workout actions.
package keypad

import (
	"errors"
	"fmt"
	"slices"

	"github.com/claude/liftlog/internal/workout"
)

// Key tokens sent by the keypad.
const (
	KeyDecimal    = "."
	KeyBackspace  = "backspace"
	KeyNext       = "next"
	KeyPlus       = "plus"
	KeyMinus      = "minus"
	KeyBodyweight = "bw"
	KeyToggleSign = "toggle-sign"
	KeyCollapse   = "collapse"
)

// Layout is the set of keys presented for one field type, row by row.
type Layout struct {
	Field workout.Field `json:"field"`
	Rows  [][]string    `json:"rows"`
}

var (
	// WeightLayout adds decimal, plate steps, sign and bodyweight keys.
	WeightLayout = Layout{
		Field: workout.FieldWeight,
		Rows: [][]string{
			{"1", "2", "3", KeyMinus},
			{"4", "5", "6", KeyPlus},
			{"7", "8", "9", KeyBodyweight},
			{KeyDecimal, "0", KeyBackspace, KeyToggleSign},
			{KeyCollapse, KeyNext},
		},
	}
	// RepsLayout is digits only.
	RepsLayout = Layout{
		Field: workout.FieldReps,
		Rows: [][]string{
			{"1", "2", "3"},
			{"4", "5", "6"},
			{"7", "8", "9"},
			{"0", KeyBackspace},
			{KeyCollapse, KeyNext},
		},
	}
)

// LayoutFor returns the layout for field; ok is false when no field is active.
func LayoutFor(field workout.Field) (Layout, bool) {
	switch field {
	case workout.FieldWeight:
		return WeightLayout, true
	case workout.FieldReps:
		return RepsLayout, true
	}
	return Layout{}, false
}

// Has reports whether key is presented by the layout.
func (l Layout) Has(key string) bool {
	for _, row := range l.Rows {
		if slices.Contains(row, key) {
			return true
		}
	}
	return false
}

// Action translates a token into a reducer action. The mapping is the same
// for every layout; ok is false for unknown tokens.
func Action(key string) (workout.Action, bool) {
	switch key {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", KeyDecimal:
		return workout.InputDigit{Value: key}, true
	case KeyBackspace:
		return workout.Backspace{}, true
	case KeyNext:
		return workout.Next{}, true
	case KeyPlus:
		return workout.PlusMinus{Sign: 1}, true
	case KeyMinus:
		return workout.PlusMinus{Sign: -1}, true
	case KeyBodyweight:
		return workout.ToggleBodyweight{}, true
	case KeyToggleSign:
		return workout.ToggleSign{}, true
	case KeyCollapse:
		return workout.CollapseKeyboard{}, true
	}
	return nil, false
}

// ErrUnknownKey is returned by Actions for a token no layout presents.
var ErrUnknownKey = errors.New("unknown key")

// Actions translates a whole key sequence, rejecting it if any token is unknown.
func Actions(keys []string) ([]workout.Action, error) {
	out := make([]workout.Action, 0, len(keys))
	for _, k := range keys {
		a, ok := Action(k)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, k)
		}
		out = append(out, a)
	}
	return out, nil
}

// Reducer is the part of workout.Reducer the keypad needs.
type Reducer interface {
	Reduce(workout.Workout, workout.Action) workout.Workout
}

// Press applies key to w. Unknown tokens leave w unchanged.
func Press(r Reducer, w workout.Workout, key string) workout.Workout {
	a, ok := Action(key)
	if !ok {
		return w
	}
	return r.Reduce(w, a)
}

// PressAll applies keys in order.
func PressAll(r Reducer, w workout.Workout, keys ...string) workout.Workout {
	for _, k := range keys {
		w = Press(r, w, k)
	}
	return w
}
