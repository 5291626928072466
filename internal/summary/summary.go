// Package summary renders completed exercises as compact one-line strings
// such as "Bench Press - 135lb:x8,x8,x6".
package summary

import (
	"strconv"
	"strings"

	"github.com/claude/liftlog/internal/workout"
)

// DefaultUnit is appended to weights when no unit is configured.
const DefaultUnit = "lb"

// Formatter renders summaries with a fixed weight unit.
type Formatter struct {
	Unit string
}

// New returns a Formatter for unit, falling back to DefaultUnit.
func New(unit string) Formatter {
	if unit == "" {
		unit = DefaultUnit
	}
	return Formatter{Unit: unit}
}

type group struct {
	label string
	reps  []string
}

// Exercise summarizes the completed working sets of one exercise. Warmups and
// sets not marked completed are skipped. Consecutive sets sharing a weight
// label are grouped ("135lb:x8,x8"); a lone set reads "145lbx6". With no
// qualifying sets only the name is returned.
func (f Formatter) Exercise(name string, sets []workout.CompletedSet) string {
	var groups []group
	for _, s := range sets {
		if !s.Completed || s.Modifier == workout.ModifierWarmup {
			continue
		}
		label := f.weightLabel(s)
		reps := "x?"
		if s.Reps != nil {
			reps = "x" + strconv.Itoa(*s.Reps)
		}
		if n := len(groups); n > 0 && groups[n-1].label == label {
			groups[n-1].reps = append(groups[n-1].reps, reps)
			continue
		}
		groups = append(groups, group{label: label, reps: []string{reps}})
	}
	if len(groups) == 0 {
		return name
	}

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g.reps) == 1 {
			parts = append(parts, g.label+g.reps[0])
			continue
		}
		parts = append(parts, g.label+":"+strings.Join(g.reps, ","))
	}
	return name + " - " + strings.Join(parts, ",")
}

// Workout summarizes every exercise of cw, one line each, skipping exercises
// with nothing to report.
func (f Formatter) Workout(cw workout.CompletedWorkout) []string {
	var lines []string
	for _, ex := range cw.Exercises {
		line := f.Exercise(ex.Name, ex.Sets)
		if line == ex.Name {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (f Formatter) weightLabel(s workout.CompletedSet) string {
	if s.WeightModifier == workout.WeightModifierBodyweight {
		if s.Weight == nil || *s.Weight == 0 {
			return "BW"
		}
		if *s.Weight > 0 {
			return "BW+" + formatWeight(*s.Weight) + f.Unit
		}
		return "BW-" + formatWeight(-*s.Weight) + f.Unit
	}
	if s.Weight == nil {
		return ""
	}
	return formatWeight(*s.Weight) + f.Unit
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var defaultFormatter = New(DefaultUnit)

// Exercise summarizes with the default unit.
func Exercise(name string, sets []workout.CompletedSet) string {
	return defaultFormatter.Exercise(name, sets)
}

// Workout summarizes with the default unit.
func Workout(cw workout.CompletedWorkout) []string {
	return defaultFormatter.Workout(cw)
}
