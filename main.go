// chatfolio is a scripted portfolio chat for the terminal and the browser.
package main

import (
	"fmt"
	"os"

	"github.com/kinodev/chatfolio/cmd"
	"github.com/kinodev/chatfolio/config"
	"github.com/kinodev/chatfolio/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	workspace, _ := cfg.WorkspacePath()
	if err := logger.Init(cfg.BuildLoggerConfig(), workspace); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	cmd.Execute()
}
