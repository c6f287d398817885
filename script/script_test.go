package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScriptShape(t *testing.T) {
	s := Default()

	require.Len(t, s.Prompts, 4)
	require.Len(t, s.Stages, 4)
	assert.Equal(t, "Hey, who's this?", s.Prompts[0])
	assert.Len(t, s.Stages[0].Lines, 3)
	assert.Equal(t, "👋 Hey there", s.Stages[0].Lines[0].Text())
	assert.Equal(t, time.Second, s.Stages[0].Lines[0].Delay())
	assert.Equal(t, 1500*time.Millisecond, s.Stages[0].Lines[1].Delay())

	last := s.Stages[3].Lines
	require.NotEmpty(t, last)
	assert.True(t, last[len(last)-1].IsFooter())
	assert.Equal(t, 3*time.Second, last[len(last)-1].Delay())

	resume := last[len(last)-2]
	assert.Equal(t, LineLink, resume.Kind())
	assert.Equal(t, "Kino_Resume.pdf", resume.DownloadName())

	assert.Equal(t, LineProjects, s.Stages[2].Lines[1].Kind())
	assert.Len(t, s.Projects, 2)
	assert.Len(t, s.Reactions, 8)
	assert.Equal(t, "K", s.Profile.InitialOrDefault())
}

func TestLineYAMLVariants(t *testing.T) {
	data := []byte(`
profile: {name: ada}
prompts: ["hi", "bye"]
stages:
  - lines:
      - plain scalar
      - text: "slow one"
        delay: 1500ms
  - lines:
      - link: {text: site, url: "https://example.com"}
      - footer: "the end"
`)
	s, err := Parse(data)
	require.NoError(t, err)

	lines := s.Stages[0].Lines
	assert.Equal(t, Text("plain scalar"), lines[0])
	assert.Equal(t, "slow one", lines[1].Text())
	assert.Equal(t, 1500*time.Millisecond, lines[1].Delay())

	link := s.Stages[1].Lines[0]
	assert.Equal(t, LineLink, link.Kind())
	assert.Equal(t, "https://example.com", link.URL())
	assert.Empty(t, link.DownloadName())
	assert.Equal(t, Footer("the end"), s.Stages[1].Lines[1])
	assert.Equal(t, "A", s.Profile.InitialOrDefault())
}

func TestLineRejectsAmbiguousVariant(t *testing.T) {
	data := []byte(`
profile: {name: ada}
prompts: ["hi"]
stages:
  - lines:
      - text: "hello"
        footer: "also footer"
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestValidate(t *testing.T) {
	base := func() *Script {
		return &Script{
			Profile: Profile{Name: "ada"},
			Prompts: []string{"hi"},
			Stages:  []Stage{{Lines: []Line{Text("hello")}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(s *Script)
	}{
		{"missing name", func(s *Script) { s.Profile.Name = " " }},
		{"no prompts", func(s *Script) { s.Prompts = nil; s.Stages = nil }},
		{"stage count mismatch", func(s *Script) { s.Prompts = append(s.Prompts, "again") }},
		{"empty prompt", func(s *Script) { s.Prompts[0] = "  " }},
		{"empty stage", func(s *Script) { s.Stages[0].Lines = nil }},
		{"empty text", func(s *Script) { s.Stages[0].Lines[0] = Text("") }},
		{"link without url", func(s *Script) { s.Stages[0].Lines[0] = Link("x", "") }},
		{"projects without cards", func(s *Script) { s.Stages[0].Lines = append(s.Stages[0].Lines, Projects()) }},
		{"negative delay", func(s *Script) { s.Stages[0].Lines[0] = Text("x").WithDelay(-time.Second) }},
		{"duplicate reaction", func(s *Script) {
			r := Reaction{Key: "k", Emoji: "🐛", Reply: "r"}
			s.Reactions = []Reaction{r, r}
		}},
		{"reaction without reply", func(s *Script) {
			s.Reactions = []Reaction{{Key: "k", Emoji: "🐛"}}
		}},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "error should wrap ErrInvalid: %v", err)
		})
	}
}

func TestMarshalKeepsVariants(t *testing.T) {
	s := Default()
	data, err := Marshal(s)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestLoad(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Kino", s.Profile.Name)

	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile: {name: x}\nprompts: []\n"), 0644))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
