package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keyfirmware/apdudispatch/output"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List the built-in demo application registry",
	Long: `List the AID and dictionary label of every resident application
dispatchctl wires into the dispatcher for run.`,
	RunE: runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
}

func runApps(cmd *cobra.Command, args []string) error {
	apps := demoRegistry()
	entries := make([]output.AppEntry, 0, len(apps))
	for _, app := range apps {
		entries = append(entries, output.AppEntry{AID: app.AID()})
	}
	output.PrintRegistry(entries)
	return nil
}
