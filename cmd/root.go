// Package cmd wires the chatfolio command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/config"
	"github.com/kinodev/chatfolio/logger"
)

var (
	configDirFlag string
	scriptFlag    string
	logLevelFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "chatfolio",
	Short: "A scripted portfolio chat for the terminal and the browser",
	Long: `chatfolio plays a pre-written conversation about you: the visitor's
questions type themselves into the input line, the visitor presses send, and
your answers arrive one by one behind a typing indicator.

Examples:
  chatfolio                       # chat in the terminal
  chatfolio serve                 # serve the chat page on http://127.0.0.1:8080
  chatfolio transcript            # print the whole conversation
  chatfolio script validate my.yaml`,
	SilenceUsage:      true,
	PersistentPreRunE: reinitForFlags,
	RunE:              runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default: ~/.chatfolio)")
	rootCmd.PersistentFlags().StringVar(&scriptFlag, "script", "", "Script file to play instead of the configured one")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug|info|warn|error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// reinitForFlags redoes main's logger setup when flags change where config
// lives or how loud logging is.
func reinitForFlags(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("config-dir") && !flags.Changed("log-level") {
		return nil
	}
	config.SetConfigDir(configDirFlag)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workspace, _ := cfg.WorkspacePath()
	if err := logger.Init(cfg.BuildLoggerConfig(), workspace); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	return nil
}
