package cmd

import (
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that committed generated files match their templates",
	Long: `Regenerate into a temporary directory and compare it with the
destination. Any missing, stale or modified file is reported as a
zero-context diff and the command exits non-zero. The destination is never
written.

Examples:
  degyb verify                               # Use .degyb.yml
  degyb verify --destination Sources/App/gyb`,
	RunE: runVerifyCommand,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("expander", "", "Path to the gyb script")
	verifyCmd.Flags().String("destination", "", "Directory holding the committed generated files")
	verifyCmd.Flags().StringSlice("tag", nil, "Tag to expand tag templates for (repeatable)")
}

func runVerifyCommand(cmd *cobra.Command, args []string) error {
	rt, err := loadSession(cmd, map[string]string{
		"expander.path":    "expander",
		"destination.path": "destination",
		"tags":             "tag",
	})
	if err != nil {
		return err
	}

	service, err := services.NewBuildService(rt.config, rt.env, rt.logger)
	if err != nil {
		return err
	}

	report, err := service.Verify(cmd.Context())
	if err != nil {
		return err
	}

	printVerifyReport(cmd, report)
	return nil
}
