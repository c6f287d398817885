package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/config"
	"github.com/kinodev/chatfolio/script"
)

const scriptFileName = "script.yaml"

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize chatfolio configuration and a starter script",
	Long:  `Create the chatfolio configuration directory, config.yaml and optionally a script.yaml to edit.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

// pacingPresets scale the default delays.
var pacingPresets = map[string]float64{
	"relaxed": 1.5,
	"normal":  1,
	"brisk":   0.5,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	var (
		name        string
		initial     string
		status      = "Online"
		pace        = "normal"
		addr        = "127.0.0.1:8080"
		writeScript = true
	)

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Description("Shown in the chat header.").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}).
				Value(&name),
			huh.NewInput().
				Title("Avatar letter").
				Description("Leave empty to use the first letter of your name.").
				CharLimit(2).
				Value(&initial),
			huh.NewInput().
				Title("Status").
				Value(&status),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Conversation pace").
				Options(
					huh.NewOption("Relaxed", "relaxed"),
					huh.NewOption("Normal", "normal"),
					huh.NewOption("Brisk", "brisk"),
				).
				Value(&pace),
			huh.NewInput().
				Title("Web listen address").
				Description("Used by 'chatfolio serve'.").
				Value(&addr),
			huh.NewConfirm().
				Title("Write a starter script.yaml?").
				Description("A copy of the built-in conversation with your profile, ready to edit.").
				Value(&writeScript),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	applyPacingPreset(&cfg.Pacing, pacingPresets[pace])
	if a := strings.TrimSpace(addr); a != "" {
		cfg.Web.Addr = a
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	scriptPath := ""
	if writeScript {
		scriptPath = filepath.Join(configDir, scriptFileName)
		profile := script.Profile{
			Name:    strings.TrimSpace(name),
			Initial: strings.TrimSpace(initial),
			Status:  strings.TrimSpace(status),
		}
		if err := writeStarterScript(scriptPath, profile); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		cfg.Script = scriptFileName
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("chatfolio initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	if scriptPath != "" {
		fmt.Println("  Script:", scriptPath)
	}
	fmt.Println("  Pace:", pace)
	fmt.Println()
	fmt.Println("Run 'chatfolio' to chat, or 'chatfolio serve' to share it.")
	return nil
}

// applyPacingPreset scales every delay of the defaults by factor.
func applyPacingPreset(p *config.PacingConfig, factor float64) {
	if factor <= 0 || factor == 1 {
		return
	}
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) * factor)
	}
	p.Startup = scale(p.Startup)
	p.Reply = scale(p.Reply)
	p.Thinking = scale(p.Thinking)
	p.Between = scale(p.Between)
	p.FooterSettle = scale(p.FooterSettle)
	p.StageBuffer = scale(p.StageBuffer)
	p.RevealSpeed = scale(p.RevealSpeed)
}

// writeStarterScript copies the built-in script with profile swapped in,
// skipping if the file already exists.
func writeStarterScript(path string, profile script.Profile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	sc := script.Default()
	sc.Profile = profile
	data, err := script.Marshal(sc)
	if err != nil {
		return err
	}
	if _, err := script.Parse(data); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
