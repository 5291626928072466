package workout

// SetView is what a presentation layer renders for one set.
type SetView struct {
	Weight          *float64       `json:"weight"`
	Reps            *int           `json:"reps"`
	WeightEstimated bool           `json:"weightEstimated"`
	RepsEstimated   bool           `json:"repsEstimated"`
	Completed       bool           `json:"completed"`
	Modifier        Modifier       `json:"modifier,omitempty"`
	WeightModifier  WeightModifier `json:"weightModifier,omitempty"`
	Active          Field          `json:"active,omitempty"`
}

// ExerciseView is the rendered form of an exercise.
type ExerciseView struct {
	Name  string    `json:"name"`
	Notes []string  `json:"notes"`
	Sets  []SetView `json:"sets"`
}

// View is the full rendered projection of a session.
type View struct {
	Name                 string         `json:"name"`
	CurrentExerciseIndex int            `json:"currentExerciseIndex"`
	Notes                []string       `json:"notes"`
	InputValue           string         `json:"inputValue"`
	ActiveField          ActiveField    `json:"activeField"`
	Exercises            []ExerciseView `json:"exercises"`
}

// Project computes the displayed values of every set in w.
func (e Estimator) Project(w Workout) View {
	v := View{
		Name:                 w.Name,
		CurrentExerciseIndex: w.CurrentExerciseIndex,
		Notes:                w.Notes,
		InputValue:           w.InputValue,
		ActiveField:          w.ActiveField,
		Exercises:            make([]ExerciseView, 0, len(w.Exercises)),
	}
	for ei, ex := range w.Exercises {
		ev := ExerciseView{Name: ex.Name, Notes: ex.Notes, Sets: make([]SetView, 0, len(ex.Sets))}
		for si, s := range ex.Sets {
			sv := SetView{
				Weight:          e.DisplayWeight(ex, si),
				Reps:            e.DisplayReps(ex, si),
				WeightEstimated: !s.IsBodyweight() && !s.Completed && !s.WeightExplicit,
				RepsEstimated:   !s.Completed && !s.RepsExplicit,
				Completed:       s.Completed,
				Modifier:        s.Modifier,
				WeightModifier:  s.WeightModifier,
			}
			if af := w.ActiveField; af.Active() && af.ExerciseIndex == ei && af.SetIndex == si {
				sv.Active = af.Field
			}
			ev.Sets = append(ev.Sets, sv)
		}
		v.Exercises = append(v.Exercises, ev)
	}
	return v
}

// Project uses the default progression policy.
func Project(w Workout) View {
	return defaultEstimator.Project(w)
}
