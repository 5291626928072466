package alpha

import (
	"math"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/workout"
)

const kgToLb = 2.20462262

// ToWorkouts converts parsed sessions into completed workouts with every set
// completed. Weights are converted from kilograms when unit is "lb" and
// rounded to the nearest half unit.
func ToWorkouts(sessions []Session, unit string) []workout.CompletedWorkout {
	out := make([]workout.CompletedWorkout, 0, len(sessions))
	for _, s := range sessions {
		cw := workout.CompletedWorkout{
			Name:        s.Name,
			Date:        s.Date.UTC().Format(time.RFC3339),
			StartedAt:   s.Date,
			CompletedAt: s.Date,
			Exercises:   make([]workout.CompletedExercise, 0, len(s.Exercises)),
		}
		if secs, ok := parseDuration(s.Duration); ok {
			cw.DurationSeconds = &secs
			cw.CompletedAt = s.Date.Add(time.Duration(secs) * time.Second)
		}
		for _, ex := range s.Exercises {
			if len(ex.Sets) == 0 {
				continue
			}
			ce := workout.CompletedExercise{
				Order: len(cw.Exercises) + 1,
				Name:  ex.Name,
				Notes: []string{},
				Sets:  make([]workout.CompletedSet, 0, len(ex.Sets)),
			}
			for _, set := range ex.Sets {
				weight := convertWeight(set.WeightKg, unit)
				reps := set.Reps
				cs := workout.CompletedSet{
					Order:     len(ce.Sets) + 1,
					Weight:    &weight,
					Reps:      &reps,
					Completed: true,
				}
				if set.IsWarmup {
					cs.Modifier = workout.ModifierWarmup
				}
				if set.IsBodyweightPlus {
					cs.WeightModifier = workout.WeightModifierBodyweight
				}
				ce.Sets = append(ce.Sets, cs)
			}
			cw.Exercises = append(cw.Exercises, ce)
		}
		out = append(out, cw)
	}
	return out
}

func convertWeight(kg float64, unit string) float64 {
	if !strings.EqualFold(unit, "lb") {
		return kg
	}
	return math.Round(kg*kgToLb*2) / 2
}
