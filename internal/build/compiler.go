// Package build provides gyb template expansion and promotion of expanded
// files into the destination store.
package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/validation"
	"mvdan.cc/sh/v3/shell"
)

// Define is one -DKEY=VALUE parameter passed to the expander.
type Define struct {
	Key   string
	Value string
}

func (d Define) String() string {
	return fmt.Sprintf("-D%s=%s", d.Key, d.Value)
}

// Invocation describes a single expansion: one template, one output file,
// and the defines for that output.
type Invocation struct {
	Template string
	Output   string
	Defines  []Define
}

// Expander turns a template into a generated file.
type Expander interface {
	// Check verifies the expander can be run at all.
	Check() error
	// Expand runs one invocation to completion.
	Expand(ctx context.Context, inv Invocation) error
}

// CompilerConfig configures a GybCompiler.
type CompilerConfig struct {
	// Script is the gyb executable or script path.
	Script string
	// Interpreter is an optional command line the script is run with, such
	// as "python3". It is split with shell word rules.
	Interpreter string
	// Args are extra arguments appended to every invocation, split with
	// shell word rules.
	Args string
	// LineDirectives keeps gyb's source location comments in the output.
	LineDirectives bool
	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration
	// Env is the complete environment for the subprocess.
	Env []string
	// Dir is the working directory for the subprocess.
	Dir string
}

// GybCompiler runs the gyb expander as a subprocess.
type GybCompiler struct {
	script         string
	interpreter    []string
	args           []string
	lineDirectives bool
	timeout        time.Duration
	env            []string
	dir            string
	logger         logging.Logger
}

// Ensure GybCompiler implements Expander
var _ Expander = (*GybCompiler)(nil)

// NewGybCompiler creates a compiler from cfg. Interpreter and extra argument
// strings are expanded against cfg.Env, not the ambient process environment.
func NewGybCompiler(cfg CompilerConfig, logger logging.Logger) (*GybCompiler, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	lookup := envLookup(cfg.Env)

	interpreter, err := shell.Fields(cfg.Interpreter, lookup)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse expander interpreter %q: %v", cfg.Interpreter, err))
	}

	args, err := shell.Fields(cfg.Args, lookup)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse expander args %q: %v", cfg.Args, err))
	}

	return &GybCompiler{
		script:         cfg.Script,
		interpreter:    interpreter,
		args:           args,
		lineDirectives: cfg.LineDirectives,
		timeout:        cfg.Timeout,
		env:            cfg.Env,
		dir:            cfg.Dir,
		logger:         logger.WithComponent("expander"),
	}, nil
}

// Check verifies that the gyb script exists and, when it is run without an
// interpreter, that it is executable; and that the interpreter resolves.
func (c *GybCompiler) Check() error {
	if len(c.interpreter) == 0 {
		if _, err := exec.LookPath(c.script); err != nil {
			return errors.NewToolNotFoundError(errors.ErrCodeExpanderMissing, c.script, err)
		}
		return nil
	}

	info, err := os.Stat(c.script)
	if err != nil {
		return errors.NewToolNotFoundError(errors.ErrCodeExpanderMissing, c.script, err)
	}
	if info.IsDir() {
		return errors.NewToolNotFoundError(errors.ErrCodeExpanderMissing, c.script,
			fmt.Errorf("is a directory"))
	}

	if _, err := exec.LookPath(c.interpreter[0]); err != nil {
		return errors.NewToolNotFoundError(errors.ErrCodeExpanderMissing, c.interpreter[0], err)
	}

	return nil
}

// Command returns the argv for inv.
func (c *GybCompiler) Command(inv Invocation) []string {
	argv := make([]string, 0, len(c.interpreter)+len(c.args)+len(inv.Defines)+5)
	argv = append(argv, c.interpreter...)
	argv = append(argv, c.script, inv.Template, "-o", inv.Output)

	// gyb emits source locations unless --line-directive is given an empty
	// value.
	if !c.lineDirectives {
		argv = append(argv, "--line-directive=")
	}

	argv = append(argv, c.args...)
	for _, define := range inv.Defines {
		argv = append(argv, define.String())
	}

	return argv
}

// Expand runs gyb for inv with context-based timeout.
func (c *GybCompiler) Expand(ctx context.Context, inv Invocation) error {
	if err := c.validateInvocation(inv); err != nil {
		return errors.NewExpansionError(errors.ErrCodeExpansionFailed, inv.Template, nil, "", err)
	}

	argv := c.Command(inv)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug(ctx, "Executing expander", "command", errors.QuoteCommand(argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = c.env
	cmd.Dir = c.dir
	// A killed expander may leave children holding the output pipe.
	cmd.WaitDelay = time.Second

	output, err := cmd.CombinedOutput()
	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return errors.NewExpansionError(errors.ErrCodeExpansionTimeout, inv.Template, argv, string(output),
				fmt.Errorf("gyb did not finish within %s: %w", c.timeout, ctx.Err()))
		case context.Canceled:
			return errors.NewExpansionError(errors.ErrCodeCancelled, inv.Template, argv, string(output),
				fmt.Errorf("expansion cancelled: %w", ctx.Err()))
		}
		return errors.NewExpansionError(errors.ErrCodeExpansionFailed, inv.Template, argv, string(output), err)
	}

	return nil
}

// validateInvocation rejects defines that would not survive as a single
// argument.
func (c *GybCompiler) validateInvocation(inv Invocation) error {
	if inv.Template == "" || inv.Output == "" {
		return fmt.Errorf("template and output paths are required")
	}

	for _, define := range inv.Defines {
		if define.Key == "" || strings.ContainsAny(define.Key, "= ") {
			return fmt.Errorf("invalid define name %q", define.Key)
		}
		if err := validation.ValidateArgument(define.Value); err != nil {
			return fmt.Errorf("invalid value for define %s: %w", define.Key, err)
		}
	}

	return nil
}

// envLookup resolves variables from an explicit KEY=VALUE list.
func envLookup(env []string) func(string) string {
	return func(name string) string {
		for i := len(env) - 1; i >= 0; i-- {
			if key, value, ok := strings.Cut(env[i], "="); ok && key == name {
				return value
			}
		}
		return ""
	}
}
