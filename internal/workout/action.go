package workout

// Action is a user gesture applied by the reducer. The set of actions is
// closed: every implementation lives in this file.
//
//sumtype:decl
type Action interface {
	isAction()
	// Type is the wire tag used by the JSON action envelope.
	Type() string
}

type (
	// FocusField gives the keypad to a set's weight or reps cell.
	FocusField struct {
		ExerciseIndex int   `json:"exerciseIndex"`
		SetIndex      int   `json:"setIndex"`
		Field         Field `json:"field"`
	}
	// InputDigit appends a digit or "." to the active buffer.
	InputDigit struct {
		Value string `json:"value"`
	}
	Backspace struct{}
	// PlusMinus steps the active weight by one plate increment; Sign is +1 or -1.
	PlusMinus struct {
		Sign int `json:"sign"`
	}
	ToggleSign       struct{}
	ToggleBodyweight struct{}
	ToggleWarmup     struct {
		ExerciseIndex int `json:"exerciseIndex"`
		SetIndex      int `json:"setIndex"`
	}
	ToggleComplete struct {
		ExerciseIndex int `json:"exerciseIndex"`
		SetIndex      int `json:"setIndex"`
	}
	Next   struct{}
	AddSet struct {
		ExerciseIndex int `json:"exerciseIndex"`
	}
	DeleteSet struct {
		ExerciseIndex int `json:"exerciseIndex"`
		SetIndex      int `json:"setIndex"`
	}
	// NavExercise moves CurrentExerciseIndex by Delta.
	NavExercise struct {
		Delta int `json:"delta"`
	}
	CollapseKeyboard struct{}

	AddExerciseNote struct {
		ExerciseIndex int    `json:"exerciseIndex"`
		Text          string `json:"text"`
	}
	UpdateExerciseNote struct {
		ExerciseIndex int    `json:"exerciseIndex"`
		NoteIndex     int    `json:"noteIndex"`
		Text          string `json:"text"`
	}
	DeleteExerciseNote struct {
		ExerciseIndex int `json:"exerciseIndex"`
		NoteIndex     int `json:"noteIndex"`
	}
	ReorderExerciseNote struct {
		ExerciseIndex int `json:"exerciseIndex"`
		From          int `json:"from"`
		To            int `json:"to"`
	}

	AddWorkoutNote struct {
		Text string `json:"text"`
	}
	UpdateWorkoutNote struct {
		NoteIndex int    `json:"noteIndex"`
		Text      string `json:"text"`
	}
	DeleteWorkoutNote struct {
		NoteIndex int `json:"noteIndex"`
	}
	ReorderWorkoutNote struct {
		From int `json:"from"`
		To   int `json:"to"`
	}

	// ReplaceState swaps in a whole state, used for recovery.
	ReplaceState struct {
		State Workout `json:"state"`
	}
)

func (FocusField) isAction()          {}
func (InputDigit) isAction()          {}
func (Backspace) isAction()           {}
func (PlusMinus) isAction()           {}
func (ToggleSign) isAction()          {}
func (ToggleBodyweight) isAction()    {}
func (ToggleWarmup) isAction()        {}
func (ToggleComplete) isAction()      {}
func (Next) isAction()                {}
func (AddSet) isAction()              {}
func (DeleteSet) isAction()           {}
func (NavExercise) isAction()         {}
func (CollapseKeyboard) isAction()    {}
func (AddExerciseNote) isAction()     {}
func (UpdateExerciseNote) isAction()  {}
func (DeleteExerciseNote) isAction()  {}
func (ReorderExerciseNote) isAction() {}
func (AddWorkoutNote) isAction()      {}
func (UpdateWorkoutNote) isAction()   {}
func (DeleteWorkoutNote) isAction()   {}
func (ReorderWorkoutNote) isAction()  {}
func (ReplaceState) isAction()        {}

func (FocusField) Type() string          { return "FOCUS_FIELD" }
func (InputDigit) Type() string          { return "INPUT_DIGIT" }
func (Backspace) Type() string           { return "BACKSPACE" }
func (PlusMinus) Type() string           { return "PLUS_MINUS" }
func (ToggleSign) Type() string          { return "TOGGLE_SIGN" }
func (ToggleBodyweight) Type() string    { return "TOGGLE_BODYWEIGHT" }
func (ToggleWarmup) Type() string        { return "TOGGLE_WARMUP" }
func (ToggleComplete) Type() string      { return "TOGGLE_COMPLETE" }
func (Next) Type() string                { return "NEXT" }
func (AddSet) Type() string              { return "ADD_SET" }
func (DeleteSet) Type() string           { return "DELETE_SET" }
func (NavExercise) Type() string         { return "NAV_EXERCISE" }
func (CollapseKeyboard) Type() string    { return "COLLAPSE_KEYBOARD" }
func (AddExerciseNote) Type() string     { return "ADD_EXERCISE_NOTE" }
func (UpdateExerciseNote) Type() string  { return "UPDATE_EXERCISE_NOTE" }
func (DeleteExerciseNote) Type() string  { return "DELETE_EXERCISE_NOTE" }
func (ReorderExerciseNote) Type() string { return "REORDER_EXERCISE_NOTE" }
func (AddWorkoutNote) Type() string      { return "ADD_WORKOUT_NOTE" }
func (UpdateWorkoutNote) Type() string   { return "UPDATE_WORKOUT_NOTE" }
func (DeleteWorkoutNote) Type() string   { return "DELETE_WORKOUT_NOTE" }
func (ReorderWorkoutNote) Type() string  { return "REORDER_WORKOUT_NOTE" }
func (ReplaceState) Type() string        { return "REPLACE_STATE" }
