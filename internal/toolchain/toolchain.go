// Package toolchain drives the Swift package manager for the build and test
// steps that consume the generated sources. Invocations are opaque: the
// runner assembles the command line and environment and reports the exit
// status, nothing more.
package toolchain

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
)

// Runner invokes swift build and swift test.
type Runner struct {
	cfg     config.ToolchainConfig
	env     []string
	verbose bool
	goos    string
	logger  logging.Logger

	// Stdout and Stderr receive the package manager's output.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a runner for cfg. env is the complete subprocess
// environment, usually config.Config.Environment(os.Environ()).
func NewRunner(cfg config.ToolchainConfig, env []string, verbose bool, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{
		cfg:     cfg,
		env:     env,
		verbose: verbose,
		goos:    runtime.GOOS,
		logger:  logger.WithComponent("toolchain"),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Swift returns the path of the swift driver inside the toolchain.
func (r *Runner) Swift() string {
	return filepath.Join(r.cfg.Path, "bin", "swift")
}

// Check verifies the swift driver exists and is executable.
func (r *Runner) Check() error {
	if _, err := exec.LookPath(r.Swift()); err != nil {
		return errors.NewToolNotFoundError(errors.ErrCodeToolchainMissing, r.Swift(), err)
	}
	return nil
}

func (r *Runner) testDiscovery() bool {
	switch r.cfg.TestDiscovery {
	case config.TestDiscoveryOn:
		return true
	case config.TestDiscoveryOff:
		return false
	default:
		return r.goos != "darwin"
	}
}

// invocation returns the arguments shared by every package manager action.
func (r *Runner) invocation(action string) []string {
	argv := []string{r.Swift(), action, "--package-path", r.cfg.PackagePath}

	if r.testDiscovery() {
		argv = append(argv, "--enable-test-discovery")
	}
	if r.cfg.Release {
		argv = append(argv, "--configuration", "release")
	}
	if r.cfg.BuildDir != "" {
		argv = append(argv, "--build-path", r.cfg.BuildDir)
	}
	if r.cfg.MultirootDataFile != "" {
		argv = append(argv, "--multiroot-data-file", r.cfg.MultirootDataFile)
	}

	return argv
}

// BuildCommand returns the argv for building the configured product.
func (r *Runner) BuildCommand() []string {
	argv := r.invocation("build")
	if r.cfg.DisableSandbox {
		argv = append(argv, "--disable-sandbox")
	}
	if r.verbose {
		argv = append(argv, "--verbose")
	}
	return append(argv, "--product", r.cfg.Product)
}

// TestCommand returns the argv for running the configured test product.
func (r *Runner) TestCommand() []string {
	argv := r.invocation("test")
	if r.verbose {
		argv = append(argv, "--verbose")
	}
	return append(argv, "--test-product", r.cfg.TestProduct)
}

// Build builds the configured product.
func (r *Runner) Build(ctx context.Context) error {
	r.logger.Info(ctx, "Building product", "product", r.cfg.Product)
	return r.run(ctx, r.BuildCommand(), "building product failed")
}

// Test runs the configured test product.
func (r *Runner) Test(ctx context.Context) error {
	r.logger.Info(ctx, "Running tests", "test_product", r.cfg.TestProduct)
	return r.run(ctx, r.TestCommand(), "running tests failed")
}

func (r *Runner) run(ctx context.Context, argv []string, failure string) error {
	r.logger.Debug(ctx, "Executing toolchain", "command", errors.QuoteCommand(argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = r.env
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return errors.NewToolchainError(errors.ErrCodeToolchainFailed, failure, argv, err)
	}

	return nil
}
