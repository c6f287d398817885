package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/channel"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/markup"
	"github.com/kinodev/chatfolio/reveal"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Print the whole conversation without delays",
	Long: `Play the script headlessly with every delay removed, sending each
question as soon as it appears, and print the resulting transcript.`,
	RunE: runTranscript,
}

var transcriptColor bool

func init() {
	transcriptCmd.Flags().BoolVar(&transcriptColor, "color", false, "Style markdown with ANSI escapes even when not on a terminal")
	rootCmd.AddCommand(transcriptCmd)
}

func runTranscript(_ *cobra.Command, _ []string) error {
	_, sc, err := prepare()
	if err != nil {
		return err
	}

	b := bus.NewBus(0)
	defer b.Close()

	render := markup.Plain
	if transcriptColor || channel.IsTerminal(os.Stdout) {
		render = markup.ANSI
	}
	ch := channel.NewPlainChannel(b, sc, channel.PlainOptions{
		Out:        os.Stdout,
		AutoSubmit: true,
		Render:     render,
		Conversation: []conversation.Option{
			conversation.WithPacing(conversation.InstantPacing()),
			conversation.WithEffect(reveal.Instant{}),
		},
	})

	ctx, stop := signalContext()
	defer stop()

	if err := ch.Start(ctx); err != nil {
		return fmt.Errorf("failed to start transcript: %w", err)
	}
	select {
	case <-ctx.Done():
	case <-ch.Done():
	}
	return ch.Stop()
}
