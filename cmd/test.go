package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyfirmware/apdudispatch/harness"
	"github.com/keyfirmware/apdudispatch/output"
)

var reportPrefix string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the built-in scenario harness",
	Long: `Run the scenario harness covering spec.md §8's end-to-end scenarios
(select/version, unknown AID, command-with-no-selection, request chaining,
response chaining via GET RESPONSE, interface isolation) and print a
pass/fail summary.

With --report, a JSON and HTML report are also written to
<prefix>.json/<prefix>.html.`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&reportPrefix, "report", "", "Write a JSON+HTML report to this path prefix")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	suite := harness.NewTestSuite(verbose)
	suite.RunAll(harness.Scenarios())

	output.PrintResults(suite.Results)
	output.PrintScenarioSummary(suite.GetSummary())

	if reportPrefix != "" {
		if err := suite.GenerateReport(reportPrefix); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if summary := suite.GetSummary(); summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", summary.Failed, summary.Total)
	}
	return nil
}
