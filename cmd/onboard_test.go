package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kinodev/chatfolio/config"
	"github.com/kinodev/chatfolio/script"
)

func TestApplyPacingPresetScalesDelays(t *testing.T) {
	p := config.PacingConfig{Startup: time.Second, Reply: 2 * time.Second, RevealSpeed: 40 * time.Millisecond}
	applyPacingPreset(&p, 0.5)
	if p.Startup != 500*time.Millisecond || p.Reply != time.Second || p.RevealSpeed != 20*time.Millisecond {
		t.Fatalf("unexpected pacing: %+v", p)
	}

	before := p
	applyPacingPreset(&p, 1)
	if p != before {
		t.Fatalf("factor 1 changed pacing: %+v", p)
	}
}

func TestWriteStarterScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), scriptFileName)
	profile := script.Profile{Name: "Ada", Status: "Away"}
	if err := writeStarterScript(path, profile); err != nil {
		t.Fatalf("writeStarterScript: %v", err)
	}

	sc, err := script.Load(path)
	if err != nil {
		t.Fatalf("load written script: %v", err)
	}
	if sc.Profile.Name != "Ada" || sc.Profile.InitialOrDefault() != "A" {
		t.Fatalf("profile = %+v", sc.Profile)
	}
	if len(sc.Prompts) != len(script.Default().Prompts) {
		t.Fatalf("prompts = %d", len(sc.Prompts))
	}

	// An existing file is left alone.
	if err := os.WriteFile(path, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := writeStarterScript(path, profile); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep" {
		t.Fatalf("existing script overwritten: %q", data)
	}
}

func TestCountLines(t *testing.T) {
	sc := &script.Script{Stages: []script.Stage{
		{Lines: []script.Line{script.Text("a"), script.Text("b")}},
		{Lines: []script.Line{script.Footer("end")}},
	}}
	if got := countLines(sc); got != 3 {
		t.Fatalf("countLines = %d, want 3", got)
	}
}

func TestDumpScript(t *testing.T) {
	data, err := dumpScript("")
	if err != nil {
		t.Fatalf("dump built-in: %v", err)
	}
	if string(data) != string(script.DefaultYAML()) {
		t.Fatal("built-in dump differs from the embedded script")
	}

	path := filepath.Join(t.TempDir(), scriptFileName)
	if err := writeStarterScript(path, script.Profile{Name: "Ada"}); err != nil {
		t.Fatal(err)
	}
	data, err = dumpScript(path)
	if err != nil {
		t.Fatalf("dump file: %v", err)
	}
	sc, err := script.Parse(data)
	if err != nil {
		t.Fatalf("dumped script does not parse: %v", err)
	}
	if sc.Profile.Name != "Ada" {
		t.Fatalf("profile = %+v", sc.Profile)
	}

	if _, err := dumpScript(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing script")
	}
}
