package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/channel"
	"github.com/kinodev/chatfolio/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page over HTTP",
	Long: `Serve the portfolio chat to browsers. Every visitor opening the page
gets a fresh conversation over a websocket; idle visitors are disconnected
after web.sessionTTL.

Examples:
  chatfolio serve                       # listen on web.addr (127.0.0.1:8080)
  chatfolio serve --addr :9000          # listen on every interface
  chatfolio serve --cli                 # also chat in this terminal`,
	RunE: runServe,
}

var (
	serveAddr string
	serveCLI  bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: web.addr from config)")
	serveCmd.Flags().BoolVar(&serveCLI, "cli", false, "Also run the terminal chat")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, sc, err := prepare()
	if err != nil {
		return err
	}
	addr := cfg.Web.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	b := bus.NewBus(0)
	defer b.Close()
	for _, id := range observeSessions(b) {
		defer b.Unsubscribe(id)
	}

	manager := channel.NewManager()
	web := channel.NewWebChannel(b, sc, channel.WebOptions{
		Addr:         addr,
		SessionTTL:   cfg.Web.SessionTTL,
		Sweep:        cfg.Web.Sweep,
		Conversation: conversationOptions(cfg),
	})
	manager.Register(web)

	var tui *channel.TUIChannel
	if serveCLI {
		tui = channel.NewTUIChannel(b, sc, channel.TUIOptions{
			ShowLogs:     true,
			LogRatio:     cfg.UI.LogRatio,
			Conversation: conversationOptions(cfg),
		})
		manager.Register(tui)
	}

	ctx, stop := signalContext()
	defer stop()

	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}
	manager.Each(func(ch channel.Channel) {
		logger.Info("channel started", "channel", ch.Name())
	})
	logger.Info("chatfolio serving", "addr", web.Addr(), "script", sc.Profile.Name)
	if tui == nil {
		fmt.Printf("Serving %s's chat on http://%s (Ctrl+C to stop)\n", sc.Profile.Name, web.Addr())
	}

	var tuiDone <-chan struct{}
	if tui != nil {
		tuiDone = tui.Done()
	}
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-tuiDone:
	}

	if err := manager.StopAll(); err != nil {
		logger.Warn("channel stop error", "err", err)
	}
	logger.Info("chatfolio stopped")
	return nil
}

// observeSessions logs visitor sessions as they come and go.
func observeSessions(b *bus.Bus) []string {
	log := func(_ context.Context, e *bus.Event) {
		logger.Info("session "+strings.TrimPrefix(string(e.Type), "session."), "session", e.Source)
	}
	return []string{
		b.Subscribe(bus.EventSessionStarted, log),
		b.Subscribe(bus.EventSessionEnded, log),
	}
}
