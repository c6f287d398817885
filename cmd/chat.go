package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/channel"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/markup"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal (default command)",
	Long: `Play the conversation in the terminal.

On a terminal this opens a full-screen chat; press enter to send each
revealed question and pick a reaction at the end. When stdin or stdout is
not a terminal, or with --plain, the conversation is printed line by line
and every line read from stdin sends the pending question.`,
	RunE: runChat,
}

var chatPlain bool

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Print the chat line by line instead of the full-screen view")
	rootCmd.Flags().BoolVar(&chatPlain, "plain", false, "Print the chat line by line instead of the full-screen view")
	rootCmd.AddCommand(chatCmd)
}

// doneChannel is a channel that can end on its own.
type doneChannel interface {
	channel.Channel
	Done() <-chan struct{}
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, sc, err := prepare()
	if err != nil {
		return err
	}

	b := bus.NewBus(0)
	defer b.Close()

	var ch doneChannel
	if chatPlain || !channel.IsTerminal(os.Stdin) || !channel.IsTerminal(os.Stdout) {
		render := markup.Plain
		if channel.IsTerminal(os.Stdout) {
			render = markup.ANSI
		}
		ch = channel.NewPlainChannel(b, sc, channel.PlainOptions{
			In:           os.Stdin,
			Out:          os.Stdout,
			Render:       render,
			Conversation: conversationOptions(cfg),
		})
	} else {
		ch = channel.NewTUIChannel(b, sc, channel.TUIOptions{
			ShowLogs:     cfg.UI.ShowLogs,
			LogRatio:     cfg.UI.LogRatio,
			Conversation: conversationOptions(cfg),
		})
	}

	ctx, stop := signalContext()
	defer stop()

	if err := ch.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s channel: %w", ch.Name(), err)
	}
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-ch.Done():
	}
	return ch.Stop()
}
