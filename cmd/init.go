package cmd

import (
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Write a default .degyb.yml",
	Long: `Write a .degyb.yml with the default settings and create the template
root, destination and tag directories it names. If no directory is given,
the current directory is initialized.

Examples:
  degyb init                 # Initialize the current directory
  degyb init server          # Initialize ./server
  degyb init --force         # Overwrite an existing .degyb.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}

	path, err := services.NewInitService().InitProject(services.InitOptions{
		ProjectDir: projectDir,
		Force:      initForce,
	})
	if err != nil {
		return err
	}

	printf(cmd, "Wrote %s\n", path)
	return nil
}
