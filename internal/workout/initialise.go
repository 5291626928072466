package workout

// HistorySet is one set of a template or of a previously completed workout.
type HistorySet struct {
	Weight         *float64       `json:"weight"`
	Reps           *int           `json:"reps"`
	IsWarmup       bool           `json:"isWarmup,omitempty"`
	Modifier       Modifier       `json:"modifier,omitempty"`
	WeightModifier WeightModifier `json:"weightModifier,omitempty"`
}

// PreviousExercise is the reference shape used to build a fresh session.
type PreviousExercise struct {
	Name string       `json:"name"`
	Sets []HistorySet `json:"sets"`
}

func (h HistorySet) previous() PreviousSet {
	mod := h.Modifier
	if h.IsWarmup {
		mod = ModifierWarmup
	}
	return PreviousSet{
		Weight:         cloneFloat(h.Weight),
		Reps:           cloneInt(h.Reps),
		Modifier:       mod,
		WeightModifier: h.WeightModifier,
	}
}

// InitialiseExercises builds the exercises of a new session. Each set starts
// unentered with its prev snapshot taken from the same position; bodyweight
// sets carry their previous offset since they are never estimated.
func InitialiseExercises(prev []PreviousExercise) []Exercise {
	exercises := make([]Exercise, 0, len(prev))
	for _, pe := range prev {
		ex := Exercise{
			Name:         pe.Name,
			Sets:         make([]Set, 0, len(pe.Sets)),
			PreviousSets: make([]PreviousSet, 0, len(pe.Sets)),
			Notes:        []string{},
		}
		for _, hs := range pe.Sets {
			p := hs.previous()
			s := Set{
				PrevWeight:     cloneFloat(p.Weight),
				PrevReps:       cloneInt(p.Reps),
				Modifier:       p.Modifier,
				WeightModifier: p.WeightModifier,
			}
			if s.IsBodyweight() {
				s.Weight = cloneFloat(p.Weight)
			}
			ex.Sets = append(ex.Sets, s)
			ex.PreviousSets = append(ex.PreviousSets, p)
		}
		exercises = append(exercises, ex)
	}
	return exercises
}
