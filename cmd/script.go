package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinodev/chatfolio/script"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Inspect conversation scripts",
}

var scriptValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a script file (default: the configured script)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScriptValidate,
}

var scriptDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the active script as YAML",
	Long: `Print the active script as YAML. With no script configured this is
the built-in one, which makes a good starting point for your own:

  chatfolio script dump > ~/.chatfolio/script.yaml`,
	Args: cobra.NoArgs,
	RunE: runScriptDump,
}

func init() {
	scriptCmd.AddCommand(scriptValidateCmd, scriptDumpCmd)
	rootCmd.AddCommand(scriptCmd)
}

func runScriptValidate(_ *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Script
	}

	sc, err := script.Load(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in script"
	}
	fmt.Printf("%s: ok\n", path)
	fmt.Printf("  profile:   %s\n", sc.Profile.Name)
	fmt.Printf("  prompts:   %d\n", len(sc.Prompts))
	fmt.Printf("  lines:     %d\n", countLines(sc))
	fmt.Printf("  projects:  %d\n", len(sc.Projects))
	fmt.Printf("  reactions: %d\n", len(sc.Reactions))
	return nil
}

func runScriptDump(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := dumpScript(cfg.Script)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// dumpScript returns the script at path as YAML. The built-in script is
// returned as written, comments and layout included.
func dumpScript(path string) ([]byte, error) {
	if path == "" {
		return script.DefaultYAML(), nil
	}
	sc, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	data, err := script.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	return data, nil
}

func countLines(sc *script.Script) int {
	n := 0
	for _, st := range sc.Stages {
		n += len(st.Lines)
	}
	return n
}
