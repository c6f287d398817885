// Package script defines the pre-authored portfolio conversation: the canned
// visitor prompts, the assistant stages they trigger, and the content shown
// along the way (profile, projects, reactions).
package script

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid script")

// Script is immutable once loaded.
type Script struct {
	Profile   Profile    `yaml:"profile"`
	Prompts   []string   `yaml:"prompts"`
	Stages    []Stage    `yaml:"stages"`
	Projects  []Project  `yaml:"projects,omitempty"`
	Reactions []Reaction `yaml:"reactions,omitempty"`
}

// Profile is what the chat header shows.
type Profile struct {
	Name    string `yaml:"name"`
	Initial string `yaml:"initial,omitempty"`
	Status  string `yaml:"status,omitempty"`
}

// Stage is the batch of assistant lines played after one visitor reply.
type Stage struct {
	Lines []Line `yaml:"lines"`
}

// Project is one card rendered by the projects marker.
type Project struct {
	Title string `yaml:"title" json:"title"`
	Tech  string `yaml:"tech" json:"tech"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	URL   string `yaml:"url" json:"url"`
}

// Reaction is an entry in the picker offered once the script is finished.
type Reaction struct {
	Key   string `yaml:"key" json:"key"`
	Emoji string `yaml:"emoji" json:"emoji"`
	Label string `yaml:"label" json:"label"`
	Reply string `yaml:"reply" json:"reply"`
}

// Prompt returns the canned visitor line for index i.
func (s *Script) Prompt(i int) (string, bool) {
	if i < 0 || i >= len(s.Prompts) {
		return "", false
	}
	return s.Prompts[i], true
}

// Stage returns stage i.
func (s *Script) Stage(i int) (Stage, bool) {
	if i < 0 || i >= len(s.Stages) {
		return Stage{}, false
	}
	return s.Stages[i], true
}

// Reaction looks up a reaction by key.
func (s *Script) Reaction(key string) (Reaction, bool) {
	for _, r := range s.Reactions {
		if r.Key == key {
			return r, true
		}
	}
	return Reaction{}, false
}

// InitialOrDefault returns the avatar letter, derived from the name when unset.
func (p Profile) InitialOrDefault() string {
	if p.Initial != "" {
		return p.Initial
	}
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(p.Name))
	if r == utf8.RuneError {
		return "?"
	}
	return strings.ToUpper(string(r))
}

// Validate checks the structural rules: one stage per prompt, well-formed
// lines, a project list when a stage shows projects, unique reactions.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Profile.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalid)
	}
	if len(s.Prompts) == 0 {
		return fmt.Errorf("%w: at least one prompt is required", ErrInvalid)
	}
	if len(s.Stages) != len(s.Prompts) {
		return fmt.Errorf("%w: %d prompts but %d stages", ErrInvalid, len(s.Prompts), len(s.Stages))
	}
	for i, p := range s.Prompts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: prompt %d is empty", ErrInvalid, i)
		}
	}

	showsProjects := false
	for i, st := range s.Stages {
		if len(st.Lines) == 0 {
			return fmt.Errorf("%w: stage %d has no lines", ErrInvalid, i)
		}
		for j, l := range st.Lines {
			if err := l.validate(); err != nil {
				return fmt.Errorf("%w: stage %d line %d: %v", ErrInvalid, i, j, err)
			}
			if l.Kind() == LineProjects {
				showsProjects = true
			}
		}
	}
	if showsProjects && len(s.Projects) == 0 {
		return fmt.Errorf("%w: projects marker used but no projects defined", ErrInvalid)
	}
	for i, p := range s.Projects {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.URL) == "" {
			return fmt.Errorf("%w: project %d needs a title and url", ErrInvalid, i)
		}
	}

	seen := make(map[string]bool, len(s.Reactions))
	for i, r := range s.Reactions {
		switch {
		case r.Key == "":
			return fmt.Errorf("%w: reaction %d has no key", ErrInvalid, i)
		case seen[r.Key]:
			return fmt.Errorf("%w: duplicate reaction %q", ErrInvalid, r.Key)
		case r.Emoji == "" || strings.TrimSpace(r.Reply) == "":
			return fmt.Errorf("%w: reaction %q needs an emoji and a reply", ErrInvalid, r.Key)
		}
		seen[r.Key] = true
	}
	return nil
}
