// Package cmd provides the command-line interface for degyb with configuration
// loaded from multiple sources.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--config, --destination, --tag, etc.) - highest priority
//	2. DEGYB_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (DEGYB_PROMOTER, DEGYB_EXPANDER_PATH, etc.)
//	4. Configuration files (.degyb.yml) - lowest priority
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// StageConfig is reported when the configuration cannot be loaded.
const StageConfig = "Loading configuration failed"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "degyb",
	Short: "Regenerate gyb templates without touching unchanged files",
	Long: `degyb expands .gyb templates into generated source files and promotes
only the files whose content changed, so incremental builds stay incremental.
Shared .gyb.template files are expanded once per configured tag, and outputs
whose templates disappeared are removed.

Quick Start:
  degyb init                      Write a default .degyb.yml
  degyb generate                  Regenerate the destination
  degyb verify                    Check committed generated files
  degyb build                     Regenerate and build the product
  degyb test                      Regenerate, build and run the tests
  degyb watch                     Regenerate on template changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .degyb.yml, can also use DEGYB_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output and every subprocess command")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig selects the configuration file and enables DEGYB_ environment
// variables. A missing default file is not an error; an explicitly named one
// that cannot be read is reported when the configuration is loaded.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DEGYB_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(services.ConfigFileName, ".yml"))
	}

	viper.SetEnvPrefix("DEGYB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// session is what every command needs after configuration is loaded.
type session struct {
	config *config.Config
	env    []string
	logger logging.Logger
}

// loadSession binds flags to configuration keys, reads the configuration
// and builds the logger and subprocess environment from it.
func loadSession(cmd *cobra.Command, bindings map[string]string) (*session, error) {
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, errors.NewFailure(StageConfig, err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewFailure(StageConfig, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewFailure(StageConfig, err)
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, errors.NewFailure(StageConfig, err)
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	for _, warning := range config.Validate(cfg).Warnings {
		logger.Warn(cmd.Context(), nil, warning.Message, "field", warning.Field)
	}

	env, err := cfg.Environment(os.Environ())
	if err != nil {
		return nil, errors.NewFailure(StageConfig, err)
	}

	return &session{config: cfg, env: env, logger: logger}, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		level = logging.LevelDebug
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:      level,
		Format:     cfg.LogFormat,
		Output:     cmd.ErrOrStderr(),
		TimeFormat: time.Kitchen,
	})

	return logger, nil
}

// printf writes command results to the command's output stream.
func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
