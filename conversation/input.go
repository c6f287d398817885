package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/reveal"
)

// Input is the editable surface. It owns the reveal handle and never shares
// it; every run is tagged with a token so callbacks from a superseded or
// destroyed run are dropped.
type Input struct {
	effect reveal.Effect
	speed  time.Duration

	mu        sync.Mutex
	run       uint64
	prompt    string
	text      string
	revealing bool
	handle    reveal.Handle
}

// NewInput creates an input widget revealing prompts with effect.
func NewInput(effect reveal.Effect, speed time.Duration) *Input {
	if effect == nil {
		effect = reveal.Instant{}
	}
	return &Input{effect: effect, speed: speed}
}

// Present starts revealing prompt. onProgress receives the partially
// revealed text and must not block; onComplete fires exactly once when the
// reveal finishes, and never for a run that was superseded or released.
// Presenting the prompt that is already revealing, or revealed and unsent, is
// a no-op and returns false.
func (in *Input) Present(prompt string, onProgress func(string), onComplete func()) bool {
	in.mu.Lock()
	if prompt != "" && prompt == in.prompt {
		in.mu.Unlock()
		logger.Debug("prompt already presented", "prompt", prompt)
		return false
	}
	old := in.takeLocked()
	in.run++
	run := in.run
	in.prompt = prompt
	in.text = ""
	in.revealing = true

	h := in.effect.Create(reveal.TargetFunc(func(text string) {
		if in.progress(run, text) && onProgress != nil {
			onProgress(text)
		}
	}), reveal.Options{
		Text:  prompt,
		Speed: in.speed,
		OnComplete: func() {
			if in.complete(run) && onComplete != nil {
				onComplete()
			}
		},
	})
	in.handle = h
	in.mu.Unlock()

	destroy(old)
	h.Start()
	return true
}

func (in *Input) progress(run uint64, text string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if run != in.run || !in.revealing {
		return false
	}
	in.text = text
	return true
}

func (in *Input) complete(run uint64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if run != in.run || !in.revealing {
		return false
	}
	in.revealing = false
	in.text = in.prompt
	// The run finished on its own; there is nothing left to destroy.
	in.handle = nil
	return true
}

// Submit returns the trimmed surface text and clears it. It refuses while a
// reveal is in progress or when the surface is blank.
func (in *Input) Submit() (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.revealing {
		return "", false
	}
	text := strings.TrimSpace(in.text)
	if text == "" {
		return "", false
	}
	in.text = ""
	in.prompt = ""
	return text, true
}

// SetText replaces the surface with free-form text. It refuses while a
// reveal is in progress.
func (in *Input) SetText(text string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.revealing {
		return false
	}
	in.text = text
	return true
}

// Release stops any in-flight reveal without firing its completion. It is
// safe to call repeatedly.
func (in *Input) Release() {
	in.mu.Lock()
	h := in.takeLocked()
	in.run++
	in.revealing = false
	in.prompt = ""
	in.mu.Unlock()

	destroy(h)
}

// Value returns the current surface text.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

// Revealing reports whether a reveal is in progress.
func (in *Input) Revealing() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.revealing
}

func (in *Input) takeLocked() reveal.Handle {
	h := in.handle
	in.handle = nil
	return h
}

// destroy runs outside in.mu: the typewriter holds its own lock while
// writing into the target, and the target takes in.mu.
func destroy(h reveal.Handle) {
	if h == nil {
		return
	}
	if err := h.Destroy(); err != nil {
		logger.Debug("reveal destroy failed (ignored)", "err", err)
	}
}
