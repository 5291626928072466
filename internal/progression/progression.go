// Package progression holds the rep/weight progression math used to project
// the next session's targets from a previous performance.
package progression

import "math"

const (
	// DefaultMinReps is the rep count a working set resets to after a weight increase.
	DefaultMinReps = 8
	// DefaultMaxReps is the rep count at which weight is increased instead of reps.
	DefaultMaxReps = 12
	// DefaultStep is the smallest plate increment targets snap to.
	DefaultStep = 2.5
	// DefaultOneRMIncrement is added to the estimated 1RM when a set graduates
	// to a heavier weight. It is negative: the projected top set lands below
	// what the raw Brzycki estimate would give.
	DefaultOneRMIncrement = -5.0

	// brzyckiLimit is the rep count at which the Brzycki denominator reaches zero.
	brzyckiLimit = 37
)

// Policy parameterizes the double-progression scheme: ramp reps from MinReps
// to MaxReps at a fixed weight, then increase weight and reset to MinReps.
type Policy struct {
	MinReps        int
	MaxReps        int
	Step           float64
	OneRMIncrement float64
}

// Default returns the stock 8-12 rep policy with 2.5 increments.
func Default() Policy {
	return Policy{
		MinReps:        DefaultMinReps,
		MaxReps:        DefaultMaxReps,
		Step:           DefaultStep,
		OneRMIncrement: DefaultOneRMIncrement,
	}
}

// Target is a projected weight/reps pair. Nil fields mean nothing could be projected.
type Target struct {
	Weight *float64 `json:"weight"`
	Reps   *int     `json:"reps"`
}

// Estimate1RM returns the Brzycki one-rep-max estimate for weight x reps.
// ok is false when reps is outside the formula's domain.
func Estimate1RM(weight float64, reps int) (float64, bool) {
	if reps < 0 || reps >= brzyckiLimit {
		return 0, false
	}
	return weight * 36 / float64(brzyckiLimit-reps), true
}

// RoundToStep snaps value to the nearest multiple of step.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}

// Next projects the target for a set previously performed at prevWeight x prevReps.
func (p Policy) Next(prevWeight *float64, prevReps *int) Target {
	if prevWeight == nil || prevReps == nil {
		return Target{}
	}
	w, r := *prevWeight, *prevReps

	if r < p.MaxReps {
		reps := r + 1
		return Target{Weight: &w, Reps: &reps}
	}

	reps := p.MinReps
	oneRM, ok := Estimate1RM(w, r)
	if !ok {
		// Past the formula's range there is no sane projection; hold the weight.
		return Target{Weight: &w, Reps: &reps}
	}
	oneRM += p.OneRMIncrement
	weight := RoundToStep(oneRM*float64(brzyckiLimit-p.MinReps)/36, p.Increment())
	return Target{Weight: &weight, Reps: &reps}
}

// Increment returns the configured plate step, falling back to DefaultStep.
func (p Policy) Increment() float64 {
	if p.Step <= 0 {
		return DefaultStep
	}
	return p.Step
}
