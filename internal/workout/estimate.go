package workout

import "github.com/claude/liftlog/internal/progression"

// Estimate is the value shown for a set when the user has not entered one.
type Estimate struct {
	Weight *float64 `json:"weight"`
	Reps   *int     `json:"reps"`
}

// Estimator derives displayed values from an exercise's sets. Nothing is
// cached: every call recomputes from the current sets.
type Estimator struct {
	Policy progression.Policy
}

// NewEstimator returns an Estimator using policy.
func NewEstimator(policy progression.Policy) Estimator {
	return Estimator{Policy: policy}
}

var defaultEstimator = NewEstimator(progression.Default())

// partition returns the positions of sets belonging to the same partition
// (warmup or working) as sets[index], and index's rank within it.
func partition(sets []Set, index int) (positions []int, rank int) {
	warmup := sets[index].IsWarmup()
	rank = -1
	for i, s := range sets {
		if s.IsWarmup() != warmup {
			continue
		}
		if i == index {
			rank = len(positions)
		}
		positions = append(positions, i)
	}
	return positions, rank
}

// previousPartition returns the previous sets with the given warmup-ness, in order.
func previousPartition(prev []PreviousSet, warmup bool) []PreviousSet {
	var out []PreviousSet
	for _, p := range prev {
		if p.IsWarmup() == warmup {
			out = append(out, p)
		}
	}
	return out
}

// EstimateSet computes the estimated weight/reps for sets[index]. previous is
// the exercise's previous performance. Out-of-range indexes yield an empty estimate.
func (e Estimator) EstimateSet(sets []Set, index int, previous []PreviousSet) Estimate {
	if index < 0 || index >= len(sets) {
		return Estimate{}
	}
	set := sets[index]
	positions, rank := partition(sets, index)
	prevPart := previousPartition(previous, set.IsWarmup())

	if set.IsWarmup() {
		// Warmups are copied forward, never progressed.
		if rank < len(prevPart) {
			return Estimate{Weight: cloneFloat(prevPart[rank].Weight), Reps: cloneInt(prevPart[rank].Reps)}
		}
		return Estimate{Weight: cloneFloat(set.PrevWeight), Reps: cloneInt(set.PrevReps)}
	}

	if rank == 0 {
		if len(prevPart) > 0 {
			t := e.Policy.Next(prevPart[0].Weight, prevPart[0].Reps)
			if t.Weight != nil || t.Reps != nil {
				return Estimate{Weight: t.Weight, Reps: t.Reps}
			}
		}
		return Estimate{Weight: cloneFloat(set.PrevWeight), Reps: cloneInt(set.PrevReps)}
	}

	// Cascade forward from the first working set of this session.
	first := positions[0]
	weight := e.displayWeight(sets, first, previous)
	reps := e.displayReps(sets, first, previous)
	for _, pos := range positions[1:rank] {
		s := sets[pos]
		if s.WeightExplicit && s.Weight != nil {
			weight = cloneFloat(s.Weight)
		}
		if s.RepsExplicit && s.Reps != nil {
			reps = cloneInt(s.Reps)
		}
	}

	if weight == nil {
		if rank < len(prevPart) && prevPart[rank].Weight != nil {
			weight = cloneFloat(prevPart[rank].Weight)
		} else {
			weight = cloneFloat(set.PrevWeight)
		}
	}
	if reps == nil {
		if rank < len(prevPart) && prevPart[rank].Reps != nil {
			reps = cloneInt(prevPart[rank].Reps)
		} else {
			reps = cloneInt(set.PrevReps)
		}
	}
	return Estimate{Weight: weight, Reps: reps}
}

func (e Estimator) displayWeight(sets []Set, index int, previous []PreviousSet) *float64 {
	s := sets[index]
	if s.IsBodyweight() || s.Completed || s.WeightExplicit {
		return cloneFloat(s.Weight)
	}
	return e.EstimateSet(sets, index, previous).Weight
}

func (e Estimator) displayReps(sets []Set, index int, previous []PreviousSet) *int {
	s := sets[index]
	if s.Completed || s.RepsExplicit {
		return cloneInt(s.Reps)
	}
	return e.EstimateSet(sets, index, previous).Reps
}

// DisplayWeight returns the weight shown for ex.Sets[index]: the raw offset for
// bodyweight sets, the stored value when explicit or completed, else the estimate.
func (e Estimator) DisplayWeight(ex Exercise, index int) *float64 {
	if index < 0 || index >= len(ex.Sets) {
		return nil
	}
	return e.displayWeight(ex.Sets, index, ex.PreviousSets)
}

// DisplayReps returns the reps shown for ex.Sets[index].
func (e Estimator) DisplayReps(ex Exercise, index int) *int {
	if index < 0 || index >= len(ex.Sets) {
		return nil
	}
	return e.displayReps(ex.Sets, index, ex.PreviousSets)
}

// EstimateSet estimates with the default progression policy.
func EstimateSet(sets []Set, index int, previous []PreviousSet) Estimate {
	return defaultEstimator.EstimateSet(sets, index, previous)
}

// DisplayWeight uses the default progression policy.
func DisplayWeight(ex Exercise, index int) *float64 {
	return defaultEstimator.DisplayWeight(ex, index)
}

// DisplayReps uses the default progression policy.
func DisplayReps(ex Exercise, index int) *int {
	return defaultEstimator.DisplayReps(ex, index)
}
