package reveal

import "sync"

// Instant fills the target in one step and completes synchronously inside
// Start. It is the effect used for headless playback and tests.
type Instant struct{}

func (Instant) Create(target Target, opts Options) Handle {
	return &instantHandle{target: target, opts: opts}
}

type instantHandle struct {
	target Target
	opts   Options

	mu     sync.Mutex
	closed bool
}

func (h *instantHandle) Start() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.target.SetText(h.opts.Text)
	h.mu.Unlock()

	if h.opts.OnComplete != nil {
		h.opts.OnComplete()
	}
}

func (h *instantHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandleClosed
	}
	h.closed = true
	return nil
}
