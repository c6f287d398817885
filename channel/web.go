package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/internal/health"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/script"
)

const (
	outboundBuffer    = 256
	readLimit         = 4 << 10
	writeWait         = 10 * time.Second
	shutdownWait      = 5 * time.Second
	defaultSessionTTL = 30 * time.Minute
	defaultSweep      = "@every 1m"
)

//go:embed static
var staticFiles embed.FS

// WebOptions configures a WebChannel.
type WebOptions struct {
	Addr           string
	SessionTTL     time.Duration // idle time before a visitor is disconnected
	Sweep          string        // cron spec for the idle check
	OriginPatterns []string      // extra origins allowed to open the websocket
	Conversation   []conversation.Option
}

// WebChannel serves the chat page and runs one conversation per websocket.
// Every visitor gets a fresh session; nothing survives a reconnect.
type WebChannel struct {
	bus    *bus.Bus
	script *script.Script
	opts   WebOptions

	server   *http.Server
	listener net.Listener
	sweeper  *cron.Cron
	subID    string
	baseCtx  context.Context
	started  time.Time

	mu       sync.Mutex
	sessions map[string]*webSession
	total    atomic.Int64
	handlers sync.WaitGroup
}

type webSession struct {
	*Session
	conn     *websocket.Conn
	out      chan []byte
	seq      int64 // bus goroutine only
	lastSeen atomic.Int64
	closing  sync.Once
}

func (s *webSession) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *webSession) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// disconnect closes the socket once; the read loop then tears the session down.
func (s *webSession) disconnect(code websocket.StatusCode, reason string) {
	s.closing.Do(func() {
		go s.conn.Close(code, reason)
	})
}

// NewWebChannel creates a web channel for sc.
func NewWebChannel(b *bus.Bus, sc *script.Script, opts WebOptions) *WebChannel {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.Sweep == "" {
		opts.Sweep = defaultSweep
	}
	return &WebChannel{
		bus:      b,
		script:   sc,
		opts:     opts,
		baseCtx:  context.Background(),
		sessions: make(map[string]*webSession),
	}
}

func (c *WebChannel) Name() string { return "web" }

func (c *WebChannel) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.opts.Addr)
	if err != nil {
		return fmt.Errorf("web listen %s: %w", c.opts.Addr, err)
	}

	c.sweeper = cron.New()
	if _, err := c.sweeper.AddFunc(c.opts.Sweep, func() { c.Sweep(time.Now()) }); err != nil {
		ln.Close()
		return fmt.Errorf("web sweep schedule %q: %w", c.opts.Sweep, err)
	}

	c.baseCtx = ctx
	c.started = time.Now()
	c.listener = ln
	c.subID = c.bus.Subscribe(bus.EventConversation, c.onEvent)
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped", "err", err)
		}
	}()
	c.sweeper.Start()

	logger.Info("web channel started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the address the server listens on.
func (c *WebChannel) Addr() string {
	if c.listener == nil {
		return c.opts.Addr
	}
	return c.listener.Addr().String()
}

func (c *WebChannel) Stop() error {
	if c.server == nil {
		return nil
	}
	<-c.sweeper.Stop().Done()

	c.mu.Lock()
	for _, ws := range c.sessions {
		ws.disconnect(websocket.StatusGoingAway, "server shutting down")
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := c.server.Shutdown(ctx)
	c.handlers.Wait()
	c.bus.Unsubscribe(c.subID)

	logger.Info("web channel stopped")
	return err
}

// Handler returns the HTTP routes: the page, the websocket and /healthz.
func (c *WebChannel) Handler() http.Handler {
	page, _ := fs.Sub(staticFiles, "static")
	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServerFS(page))
	mux.HandleFunc("GET /ws", c.serveWS)
	mux.HandleFunc("GET /healthz", c.serveHealth)
	return mux
}

func (c *WebChannel) serveHealth(w http.ResponseWriter, _ *http.Request) {
	snap := health.Collect(health.Options{Started: c.started, Sessions: c.counts()})
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logger.Warn("health encode failed", "err", err)
	}
}

func (c *WebChannel) counts() health.SessionCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := health.SessionCounts{Active: len(c.sessions), Total: int(c.total.Load())}
	for _, ws := range c.sessions {
		if ws.Finished() {
			counts.Finished++
		}
	}
	return counts
}

func (c *WebChannel) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: c.opts.OriginPatterns})
	if err != nil {
		logger.Warn("ws accept failed", "err", err)
		return
	}
	conn.SetReadLimit(readLimit)

	c.handlers.Add(1)
	defer c.handlers.Done()

	id := uuid.NewString()
	ws := &webSession{
		Session: NewSession(c.bus, id, c.script, c.opts.Conversation...),
		conn:    conn,
		out:     make(chan []byte, outboundBuffer),
	}
	ws.touch(time.Now())

	hello, err := encodeHello(id, c.script)
	if err != nil {
		logger.Error("hello frame failed", "err", err)
		conn.Close(websocket.StatusInternalError, "")
		return
	}
	ws.out <- hello

	c.mu.Lock()
	c.sessions[id] = ws
	c.mu.Unlock()
	c.total.Add(1)
	logger.Info("visitor connected", "session", id, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(c.baseCtx)
	ws.Start(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx, ws)
	}()

	c.readLoop(ctx, ws)

	cancel()
	ws.Stop()
	<-writerDone
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
	conn.CloseNow()
	logger.Info("visitor disconnected", "session", id)
}

func (c *WebChannel) readLoop(ctx context.Context, ws *webSession) {
	for {
		typ, data, err := ws.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logger.Debug("ws read ended", "session", ws.ID, "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		ws.touch(time.Now())

		frame, err := parseClientFrame(data)
		if err != nil {
			logger.Debug("bad client frame", "session", ws.ID, "err", err)
			continue
		}
		o := ws.Orchestrator
		switch frame.Type {
		case clientSubmit:
			o.Submit()
		case clientEdit:
			o.Edit(frame.Text)
		case clientReact:
			o.React(frame.Key)
		default:
			logger.Debug("unknown client frame", "session", ws.ID, "type", frame.Type)
		}
	}
}

func (c *WebChannel) writeLoop(ctx context.Context, ws *webSession) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-ws.out:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := ws.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Debug("ws write failed", "session", ws.ID, "err", err)
				ws.disconnect(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// onEvent routes orchestrator events to the visitor that owns them. A
// visitor too slow to keep up is disconnected rather than stalling the bus.
func (c *WebChannel) onEvent(_ context.Context, e *bus.Event) {
	c.mu.Lock()
	ws, ok := c.sessions[e.Source]
	c.mu.Unlock()
	if !ok || e.Conversation == nil {
		return
	}

	ws.seq++
	frame, err := encodeFrame(ws.seq, *e.Conversation)
	if err != nil {
		logger.Error("frame encode failed", "session", ws.ID, "err", err)
		return
	}
	select {
	case ws.out <- frame:
	default:
		logger.Warn("visitor too slow, disconnecting", "session", ws.ID)
		ws.disconnect(websocket.StatusPolicyViolation, "too slow")
	}
}

// Sweep disconnects visitors idle since before now minus the session TTL and
// returns how many it dropped.
func (c *WebChannel) Sweep(now time.Time) int {
	cutoff := now.Add(-c.opts.SessionTTL)
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for id, ws := range c.sessions {
		if ws.idleSince().Before(cutoff) {
			logger.Info("dropping idle visitor", "session", id, "idle", now.Sub(ws.idleSince()).Truncate(time.Second))
			ws.disconnect(websocket.StatusGoingAway, "idle")
			dropped++
		}
	}
	return dropped
}
