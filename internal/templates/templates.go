// Package templates loads named workout templates from YAML.
//
//	templates:
//	  - name: Push A
//	    exercises:
//	      - name: Bench Press
//	        sets:
//	          - {weight: 45, reps: 10, warmup: true}
//	          - {weight: 135, reps: 8}
//	      - name: Dips
//	        sets:
//	          - {weight: 0, reps: 8, bodyweight: true}
package templates

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/claude/liftlog/internal/workout"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Get for an unknown template name.
var ErrNotFound = errors.New("template not found")

// Set is a template's default set.
type Set struct {
	Weight     *float64 `yaml:"weight" json:"weight"`
	Reps       *int     `yaml:"reps" json:"reps"`
	Warmup     bool     `yaml:"warmup" json:"warmup,omitempty"`
	Bodyweight bool     `yaml:"bodyweight" json:"bodyweight,omitempty"`
}

// Exercise is a template exercise with its default sets.
type Exercise struct {
	Name string `yaml:"name" json:"name"`
	Sets []Set  `yaml:"sets" json:"sets"`
}

// Template is a named list of exercises.
type Template struct {
	Name      string     `yaml:"name" json:"name"`
	Exercises []Exercise `yaml:"exercises" json:"exercises"`
}

// Library holds templates by name.
type Library struct {
	byName map[string]Template
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Load reads a template file. An empty path yields an empty library.
func Load(path string) (*Library, error) {
	if path == "" {
		return &Library{byName: map[string]Template{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	return Parse(data)
}

// Parse decodes template YAML and validates it.
func Parse(data []byte) (*Library, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	lib := &Library{byName: make(map[string]Template, len(f.Templates))}
	for i, t := range f.Templates {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if _, dup := lib.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.Name)
		}
		lib.byName[t.Name] = t
	}
	return lib, nil
}

func (t Template) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("name is required")
	}
	if len(t.Exercises) == 0 {
		return fmt.Errorf("%s: at least one exercise is required", t.Name)
	}
	for i, ex := range t.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("%s: exercise %d has no name", t.Name, i)
		}
		for j, s := range ex.Sets {
			if s.Reps != nil && *s.Reps < 0 {
				return fmt.Errorf("%s: %s set %d has negative reps", t.Name, ex.Name, j)
			}
			if s.Weight != nil && *s.Weight < 0 && !s.Bodyweight {
				return fmt.Errorf("%s: %s set %d has negative weight", t.Name, ex.Name, j)
			}
		}
	}
	return nil
}

// Get returns the named template.
func (l *Library) Get(name string) (Template, error) {
	t, ok := l.byName[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, nil
}

// List returns all templates sorted by name.
func (l *Library) List() []Template {
	out := make([]Template, 0, len(l.byName))
	for _, t := range l.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Defaults expresses the template as previous-performance input for a new session.
func (t Template) Defaults() []workout.PreviousExercise {
	prev := make([]workout.PreviousExercise, 0, len(t.Exercises))
	for _, ex := range t.Exercises {
		pe := workout.PreviousExercise{Name: ex.Name, Sets: make([]workout.HistorySet, 0, len(ex.Sets))}
		for _, s := range ex.Sets {
			hs := workout.HistorySet{Weight: s.Weight, Reps: s.Reps, IsWarmup: s.Warmup}
			if s.Warmup {
				hs.Modifier = workout.ModifierWarmup
			}
			if s.Bodyweight {
				hs.WeightModifier = workout.WeightModifierBodyweight
			}
			pe.Sets = append(pe.Sets, hs)
		}
		prev = append(prev, pe)
	}
	return prev
}
