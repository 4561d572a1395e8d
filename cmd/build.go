package cmd

import (
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/services"
	"github.com/spf13/cobra"
)

var (
	buildSkipGenerate bool
	buildVerify       bool
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Regenerate gyb outputs and build the product",
	Long: `Regenerate the destination, then build the configured product with the
package manager from the toolchain directory. With --verify the committed
generated files are checked instead of rewritten, which is what CI wants.

Examples:
  degyb build                       # Regenerate and build
  degyb build --verify --release    # Check generated files, release build
  degyb build --skip-generate       # Build the destination as it is`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, false)
	},
}

var testCmd = &cobra.Command{
	Use:     "test",
	Aliases: []string{"t"},
	Short:   "Regenerate gyb outputs, build and run the tests",
	Long: `Run everything build does, then run the configured test product.

Examples:
  degyb test                        # Regenerate, build and test
  degyb test --verify               # Check generated files first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, testCmd} {
		rootCmd.AddCommand(c)

		c.Flags().BoolVar(&buildSkipGenerate, "skip-generate", false, "Do not regenerate before building")
		c.Flags().BoolVar(&buildVerify, "verify", false, "Verify generated files instead of regenerating them")
		c.Flags().Bool("release", false, "Build with --configuration release")
		c.Flags().String("toolchain", "", "Toolchain directory containing bin/swift")
		c.Flags().String("package-path", "", "Package directory passed to --package-path")
		c.Flags().String("build-path", "", "Build directory passed to --build-path")
	}
}

// runBuild backs both build and test; test also runs the test product.
func runBuild(cmd *cobra.Command, test bool) error {
	rt, err := loadSession(cmd, map[string]string{
		"toolchain.release":      "release",
		"toolchain.path":         "toolchain",
		"toolchain.package_path": "package-path",
		"toolchain.build_dir":    "build-path",
	})
	if err != nil {
		return err
	}

	service, err := services.NewBuildService(rt.config, rt.env, rt.logger)
	if err != nil {
		return err
	}
	service.Runner().Stdout = cmd.OutOrStdout()
	service.Runner().Stderr = cmd.ErrOrStderr()

	result, err := service.Build(cmd.Context(), services.BuildOptions{
		SkipGenerate: buildSkipGenerate,
		Verify:       buildVerify,
		Test:         test,
	})
	if result != nil && result.Generation != nil {
		printReport(cmd, result.Generation)
	}
	if result != nil && result.Verified != nil && result.Verified.UpToDate() {
		printVerifyReport(cmd, result.Verified)
	}
	if err != nil {
		return err
	}

	logging.FromContext(cmd.Context()).Info(cmd.Context(), "Build finished", "duration", result.Duration.String(), "tested", result.Tested)
	return nil
}
