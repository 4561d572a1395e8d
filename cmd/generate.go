package cmd

import (
	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
)

var generateVerify bool

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "g"},
	Short:   "Regenerate gyb outputs, skipping unchanged files",
	Long: `Expand every template below the template root into scratch space and
promote only the outputs whose content changed. Tag templates are expanded
once per tag into the tag directory. Outputs whose template is gone are
removed unless their tag is protected.

Examples:
  degyb generate                             # Regenerate with .degyb.yml
  degyb generate --tag Blog --tag User       # Expand tag templates for two tags
  degyb generate --expander tools/gyb        # Use a different gyb script
  degyb generate --promoter rsync            # Promote with rsync --checksum
  degyb generate --verify                    # Only check, never write`,
	RunE: runGenerateCommand,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("expander", "", "Path to the gyb script")
	generateCmd.Flags().String("destination", "", "Directory generated files are promoted into")
	generateCmd.Flags().StringSlice("tag", nil, "Tag to expand tag templates for (repeatable)")
	generateCmd.Flags().String("promoter", "", "How outputs are promoted (native, rsync)")
	generateCmd.Flags().Bool("line-directives", false, "Keep gyb line directives in generated files")
	generateCmd.Flags().BoolVar(&generateVerify, "verify", false, "Verify the destination instead of writing it")
}

var generateBindings = map[string]string{
	"expander.path":            "expander",
	"destination.path":         "destination",
	"tags":                     "tag",
	"promoter":                 "promoter",
	"expander.line_directives": "line-directives",
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	rt, err := loadSession(cmd, generateBindings)
	if err != nil {
		return err
	}

	service, err := services.NewBuildService(rt.config, rt.env, rt.logger)
	if err != nil {
		return err
	}

	if generateVerify {
		report, err := service.Verify(cmd.Context())
		if err != nil {
			return err
		}
		printVerifyReport(cmd, report)
		return nil
	}

	report, err := service.Generate(cmd.Context())
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *regen.Report) {
	for _, name := range report.Written {
		printf(cmd, "written: %s\n", name)
	}
	for _, name := range report.Removed {
		printf(cmd, "removed: %s\n", name)
	}
	printf(cmd, "%s\n", report.Summary())
}

func printVerifyReport(cmd *cobra.Command, report *regen.VerifyReport) {
	printf(cmd, "%d generated file(s) match their templates\n", report.Generated)
}
