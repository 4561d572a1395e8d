package cmd

import (
	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage degyb configuration",
	Long: `Inspect the configuration degyb resolves from .degyb.yml, DEGYB_
environment variables and flags.

Examples:
  degyb config show                        # Print the effective configuration
  degyb config validate                    # Validate the configuration
  degyb config validate --config ci.yml    # Validate a specific file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration and report errors and warnings, such as
protected tags that are not in the tag set.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rt, err := loadSession(cmd, nil)
	if err != nil {
		return err
	}

	data, err := rt.config.YAML()
	if err != nil {
		return errors.NewFailure(StageConfig, err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	rt, err := loadSession(cmd, nil)
	if err != nil {
		return err
	}

	result := config.Validate(rt.config)
	if result.HasWarnings() {
		printf(cmd, "%s", result.String())
	}

	if used := viper.ConfigFileUsed(); used != "" {
		printf(cmd, "%s is valid\n", used)
	} else {
		printf(cmd, "Configuration is valid\n")
	}
	return nil
}
