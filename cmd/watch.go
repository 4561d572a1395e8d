package cmd

import (
	"time"

	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Regenerate gyb outputs whenever templates change",
	Long: `Run a regeneration pass, then watch the template root and run another
pass after every debounced batch of template changes. A failed pass is
reported and watching continues. Stop with Ctrl-C.

Examples:
  degyb watch                      # Watch with .degyb.yml
  degyb watch --debounce 1s        # Wait longer for editors that save twice`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond,
		"How long to wait for more changes before regenerating")
	watchCmd.Flags().StringSlice("tag", nil, "Tag to expand tag templates for (repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := loadSession(cmd, map[string]string{"tags": "tag"})
	if err != nil {
		return err
	}

	service, err := services.NewBuildService(rt.config, rt.env, rt.logger)
	if err != nil {
		return err
	}

	watch := services.NewWatchService(service.Engine(), rt.logger)
	return watch.Watch(cmd.Context(), services.WatchOptions{
		Debounce: watchDebounce,
		OnPass: func(report *regen.Report, err error) {
			if err != nil {
				cmd.PrintErr(errors.AsFailure(err, services.StageGenerate).String())
				return
			}
			if report.Changed() {
				printReport(cmd, report)
			}
		},
	})
}
