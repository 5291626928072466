package workout

import "slices"

// Note lists are edited copy-on-write; ok is false when the edit does not apply.

func addNote(notes []string, text string) ([]string, bool) {
	return append(slices.Clone(notes), text), true
}

func updateNote(notes []string, i int, text string) ([]string, bool) {
	if i < 0 || i >= len(notes) {
		return notes, false
	}
	out := slices.Clone(notes)
	out[i] = text
	return out, true
}

func deleteNote(notes []string, i int) ([]string, bool) {
	if i < 0 || i >= len(notes) {
		return notes, false
	}
	return slices.Delete(slices.Clone(notes), i, i+1), true
}

func moveNote(notes []string, from, to int) ([]string, bool) {
	if from < 0 || from >= len(notes) || to < 0 || to >= len(notes) {
		return notes, false
	}
	if from == to {
		return notes, false
	}
	note := notes[from]
	out := slices.Delete(slices.Clone(notes), from, from+1)
	return slices.Insert(out, to, note), true
}

func updateExerciseNotes(w Workout, ei int, fn func([]string) ([]string, bool)) Workout {
	if ei < 0 || ei >= len(w.Exercises) {
		return w
	}
	notes, ok := fn(w.Exercises[ei].Notes)
	if !ok {
		return w
	}
	exercises := slices.Clone(w.Exercises)
	exercises[ei].Notes = notes
	w.Exercises = exercises
	return w
}

func updateWorkoutNotes(w Workout, fn func([]string) ([]string, bool)) Workout {
	notes, ok := fn(w.Notes)
	if !ok {
		return w
	}
	w.Notes = notes
	return w
}
