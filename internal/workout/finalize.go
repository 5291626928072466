package workout

import (
	"strings"
	"time"
)

// CompletedSet is a set as persisted once the workout is finished.
type CompletedSet struct {
	Order          int            `json:"order"`
	Weight         *float64       `json:"weight"`
	Reps           *int           `json:"reps"`
	Modifier       Modifier       `json:"modifier,omitempty"`
	WeightModifier WeightModifier `json:"weightModifier,omitempty"`
	Completed      bool           `json:"completed"`
}

// CompletedExercise is an exercise of a finished workout.
type CompletedExercise struct {
	Order int            `json:"order"`
	Name  string         `json:"name"`
	Notes []string       `json:"notes"`
	Sets  []CompletedSet `json:"sets"`
}

// CompletedWorkout is the immutable record handed to the persistence sink.
type CompletedWorkout struct {
	Name            string              `json:"name"`
	Date            string              `json:"date"`
	StartedAt       time.Time           `json:"startedAt"`
	CompletedAt     time.Time           `json:"completedAt"`
	DurationSeconds *int                `json:"durationSeconds,omitempty"`
	Note            *string             `json:"note,omitempty"`
	Exercises       []CompletedExercise `json:"exercises"`
}

// Finalize snapshots w into a CompletedWorkout. Every set is kept, completed
// or not; exercises left without sets are dropped. Only stored values are
// copied, never estimates. A nil durationSeconds is derived from the start time.
// A blank notes argument falls back to the last non-blank workout note in w.
func Finalize(w Workout, name, notes string, durationSeconds *int, completedAt time.Time) CompletedWorkout {
	if strings.TrimSpace(name) == "" {
		name = w.Name
	}
	started := w.StartTime
	if started.IsZero() {
		started = completedAt
	}

	cw := CompletedWorkout{
		Name:        name,
		Date:        started.UTC().Format(time.RFC3339),
		StartedAt:   started,
		CompletedAt: completedAt,
		Exercises:   []CompletedExercise{},
	}

	switch {
	case durationSeconds != nil:
		cw.DurationSeconds = iptr(*durationSeconds)
	case !w.StartTime.IsZero():
		d := int(completedAt.Sub(w.StartTime).Seconds())
		cw.DurationSeconds = iptr(max(d, 0))
	}

	n := strings.TrimSpace(notes)
	for i := len(w.Notes) - 1; n == "" && i >= 0; i-- {
		n = strings.TrimSpace(w.Notes[i])
	}
	if n != "" {
		cw.Note = &n
	}

	for _, ex := range w.Exercises {
		if len(ex.Sets) == 0 {
			continue
		}
		ce := CompletedExercise{
			Order: len(cw.Exercises) + 1,
			Name:  ex.Name,
			Notes: append([]string{}, ex.Notes...),
			Sets:  make([]CompletedSet, 0, len(ex.Sets)),
		}
		for i, s := range ex.Sets {
			ce.Sets = append(ce.Sets, CompletedSet{
				Order:          i + 1,
				Weight:         cloneFloat(s.Weight),
				Reps:           cloneInt(s.Reps),
				Modifier:       s.Modifier,
				WeightModifier: s.WeightModifier,
				Completed:      s.Completed,
			})
		}
		cw.Exercises = append(cw.Exercises, ce)
	}
	return cw
}

// CompletedOnly returns a copy keeping only completed sets, renumbered, and
// dropping exercises left empty.
func (c CompletedWorkout) CompletedOnly() CompletedWorkout {
	out := c
	out.Exercises = []CompletedExercise{}
	for _, ex := range c.Exercises {
		var sets []CompletedSet
		for _, s := range ex.Sets {
			if !s.Completed {
				continue
			}
			s.Order = len(sets) + 1
			sets = append(sets, s)
		}
		if len(sets) == 0 {
			continue
		}
		ex.Order = len(out.Exercises) + 1
		ex.Sets = sets
		out.Exercises = append(out.Exercises, ex)
	}
	return out
}

// PreviousExercises re-expresses c as the reference input for a follow-up session.
func (c CompletedWorkout) PreviousExercises() []PreviousExercise {
	prev := make([]PreviousExercise, 0, len(c.Exercises))
	for _, ex := range c.Exercises {
		pe := PreviousExercise{Name: ex.Name, Sets: make([]HistorySet, 0, len(ex.Sets))}
		for _, s := range ex.Sets {
			pe.Sets = append(pe.Sets, HistorySet{
				Weight:         cloneFloat(s.Weight),
				Reps:           cloneInt(s.Reps),
				IsWarmup:       s.Modifier == ModifierWarmup,
				Modifier:       s.Modifier,
				WeightModifier: s.WeightModifier,
			})
		}
		prev = append(prev, pe)
	}
	return prev
}
