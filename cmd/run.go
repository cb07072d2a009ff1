package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyfirmware/apdudispatch/channel"
	"github.com/keyfirmware/apdudispatch/dispatch"
	"github.com/keyfirmware/apdudispatch/output"
	"github.com/keyfirmware/apdudispatch/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run an APDU script against the dispatch engine",
	Long: `Run a simple APDU script (one command per line, hex-encoded) against a
fresh Dispatcher wired to the built-in demo application registry.

Example script format:
  # select the U2F demo applet
  00 A4 04 00 08 A0 00 00 06 47 2F 00 01
  00 03 00 00 00
  @contactless
  00 A4 04 00 08 A0 00 00 06 47 2F 00 01

Lines starting with "#" and blank lines are ignored. A bare "@contactless"
or "@contact" line switches which transport channel subsequent lines post
to (it starts on contact).`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	contact := channel.New()
	contactless := channel.New()
	d := dispatch.New(contact, contactless, dispatch.DefaultLimits, newLogger())
	apps := demoRegistry()

	steps, err := scenario.Run(args[0], d, apps, contact, contactless)
	if err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	output.PrintScriptSteps(steps)

	failed := 0
	for _, s := range steps {
		if s.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(steps))
	}
	output.PrintSuccess(fmt.Sprintf("%d lines executed", len(steps)))
	return nil
}
