// Package regen implements the template regeneration engine.
//
// A pass scans the template root, expands every plain template once and
// every tag template once per configured tag into a private scratch
// directory, promotes each result into the destination store only when its
// bytes differ, and finally sweeps destination files that no template or
// configured tag accounts for. Passes are sequential and stop at the first
// failure.
package regen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/degyb/internal/build"
	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/scanner"
	"github.com/conneroisu/degyb/internal/store"
	"github.com/spf13/afero"
)

// Options describes where templates live and how their outputs are named.
type Options struct {
	TemplateRoot string
	Recursive    bool
	Suffix       string
	TagSuffix    string

	Destination string
	// TagDir is the destination subdirectory for tag outputs. Empty puts
	// them next to plain outputs.
	TagDir    string
	Extension string
	Tags      []string
	// Protected tags keep their outputs through the sweep even when they are
	// not in Tags.
	Protected []string
	// TagDefine is the expander parameter that receives the tag.
	TagDefine string
}

// OptionsFromConfig extracts engine options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TemplateRoot: cfg.Templates.Root,
		Recursive:    cfg.Templates.Recursive,
		Suffix:       cfg.Templates.Suffix,
		TagSuffix:    cfg.Templates.TagSuffix,
		Destination:  cfg.Destination.Path,
		TagDir:       cfg.Destination.TagDir,
		Extension:    cfg.Destination.Extension,
		Tags:         cfg.Tags,
		Protected:    cfg.Destination.Protected,
		TagDefine:    cfg.Expander.TagDefine,
	}
}

// PromoterFactory creates the promoter for a destination store.
type PromoterFactory func(dest *store.Store) build.Promoter

// Engine regenerates a destination store from its templates.
type Engine struct {
	opts        Options
	fs          afero.Fs
	expander    build.Expander
	newPromoter PromoterFactory
	logger      logging.Logger
	metrics     *build.PassMetrics

	// mu serializes passes from one process.
	mu      sync.Mutex
	state   State
	lastErr error
}

// New creates an engine. A nil factory selects the native promoter.
func New(opts Options, expander build.Expander, newPromoter PromoterFactory, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if newPromoter == nil {
		newPromoter = func(dest *store.Store) build.Promoter {
			return build.NewNativePromoter(dest)
		}
	}

	return &Engine{
		opts:        opts,
		fs:          afero.NewOsFs(),
		expander:    expander,
		newPromoter: newPromoter,
		logger:      logger.WithComponent("regen"),
		metrics:     build.NewPassMetrics(),
	}
}

// NewFromConfig wires an engine with the gyb expander and the promoter named
// in cfg. env is the complete subprocess environment.
func NewFromConfig(cfg *config.Config, env []string, logger logging.Logger) (*Engine, error) {
	compiler, err := build.NewGybCompiler(build.CompilerConfig{
		Script:         cfg.Expander.Path,
		Interpreter:    cfg.Expander.Interpreter,
		Args:           cfg.Expander.Args,
		LineDirectives: cfg.Expander.LineDirectives,
		Timeout:        cfg.Expander.Timeout,
		Env:            env,
	}, logger)
	if err != nil {
		return nil, err
	}

	var factory PromoterFactory
	switch cfg.Promoter {
	case config.PromoterRsync:
		factory = func(dest *store.Store) build.Promoter {
			return build.NewRsyncPromoter(dest, env, logger)
		}
	case config.PromoterNative, "":
		factory = nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown promoter %q", cfg.Promoter))
	}

	return New(OptionsFromConfig(cfg), compiler, factory, logger), nil
}

// State returns the state after the most recent pass and that pass's error.
func (e *Engine) State() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.lastErr
}

// Metrics returns a snapshot of the pass metrics recorded so far.
func (e *Engine) Metrics() build.PassMetrics {
	return e.metrics.GetSnapshot()
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Regenerate runs one pass against the configured destination.
func (e *Engine) Regenerate(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dest := store.New(e.fs, e.opts.Destination)
	report, err := e.regenerate(ctx, dest)

	e.metrics.RecordPass(build.PassResult{
		Written:   len(report.Written),
		Unchanged: len(report.Unchanged),
		Removed:   len(report.Removed),
		Duration:  report.Duration,
		Error:     err,
	})

	if err != nil {
		e.state = StateFailed
		e.lastErr = err
		if errors.IsCancelled(err) {
			e.logger.Warn(ctx, err, "Regeneration cancelled",
				"written", len(report.Written), "state", e.state.String())
		} else {
			e.logger.Error(ctx, err, "Regeneration failed",
				"written", len(report.Written), "state", e.state.String())
		}
		return report, err
	}

	e.state = StateClean
	e.lastErr = nil
	e.logger.Info(ctx, "Regeneration complete",
		"written", len(report.Written),
		"unchanged", len(report.Unchanged),
		"removed", len(report.Removed),
		"duration", report.Duration)

	return report, nil
}

// output is one planned expansion.
type output struct {
	template scanner.Template
	name     string
	defines  []build.Define
}

// regenerate performs a pass into dest. The returned report is never nil and
// reflects what happened before any failure.
func (e *Engine) regenerate(ctx context.Context, dest *store.Store) (*Report, error) {
	start := time.Now()
	report := &Report{}
	defer func() { report.Duration = time.Since(start) }()

	promoter := e.newPromoter(dest)

	if err := e.expander.Check(); err != nil {
		return report, err
	}
	if err := promoter.Check(); err != nil {
		return report, err
	}

	templates, err := e.scan(dest)
	if err != nil {
		return report, err
	}

	plan, err := e.plan(templates)
	if err != nil {
		return report, err
	}

	if err := dest.Ensure(e.opts.TagDir); err != nil {
		return report, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to prepare destination", dest.Root(), err)
	}

	scratch, err := os.MkdirTemp("", "degyb-scratch-")
	if err != nil {
		return report, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to create scratch directory", os.TempDir(), err)
	}
	defer os.RemoveAll(scratch)

	e.logger.Info(ctx, "Generating gyb files",
		"templates", len(templates.Plain)+len(templates.Tagged),
		"outputs", len(plan),
		"destination", dest.Root())

	for _, out := range plan {
		if err := ctx.Err(); err != nil {
			code := errors.ErrCodeCancelled
			if err == context.DeadlineExceeded {
				code = errors.ErrCodeExpansionTimeout
			}
			return report, errors.NewExpansionError(code, out.template.Path, nil, "", err)
		}

		scratchPath := filepath.Join(scratch, filepath.FromSlash(out.name))
		if err := os.MkdirAll(filepath.Dir(scratchPath), 0755); err != nil {
			return report, errors.NewIOError(errors.ErrCodeDestinationAccess,
				"failed to create scratch directory", filepath.Dir(scratchPath), err)
		}

		err := e.expander.Expand(ctx, build.Invocation{
			Template: out.template.Path,
			Output:   scratchPath,
			Defines:  out.defines,
		})
		if err != nil {
			return report, err
		}

		changed, err := promoter.Promote(ctx, scratchPath, out.name)
		if err != nil {
			return report, err
		}

		if changed {
			report.Written = append(report.Written, out.name)
			e.logger.Debug(ctx, "Promoted generated file", "output", out.name)
		} else {
			report.Unchanged = append(report.Unchanged, out.name)
		}
	}

	removed, err := e.sweep(ctx, dest, plan)
	report.Removed = removed
	if err != nil {
		return report, err
	}

	return report, nil
}

func (e *Engine) scan(dest *store.Store) (*scanner.Result, error) {
	s := scanner.NewTemplateScanner(e.fs, scanner.Options{
		Suffix:    e.opts.Suffix,
		TagSuffix: e.opts.TagSuffix,
		Recursive: e.opts.Recursive,
		Skip:      []string{e.opts.Destination, dest.Root()},
	})

	result, err := s.Scan(e.opts.TemplateRoot)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to scan templates", e.opts.TemplateRoot, err)
	}
	return result, nil
}

// plan lists every output of the pass in processing order: plain templates
// first, then each tag template once per tag in configured order.
func (e *Engine) plan(templates *scanner.Result) ([]output, error) {
	if len(templates.Tagged) > 1 && len(e.opts.Tags) > 0 {
		names := make([]string, 0, len(templates.Tagged))
		for _, tmpl := range templates.Tagged {
			names = append(names, tmpl.Name)
		}
		return nil, errors.NewConfigError(errors.ErrCodeTagCollision,
			fmt.Sprintf("tag templates %s would write the same outputs", strings.Join(names, ", ")))
	}

	plan := make([]output, 0, len(templates.Plain)+len(e.opts.Tags))
	for _, tmpl := range templates.Plain {
		plan = append(plan, output{template: tmpl, name: tmpl.Output})
	}
	for _, tmpl := range templates.Tagged {
		for _, tag := range e.opts.Tags {
			plan = append(plan, output{
				template: tmpl,
				name:     e.tagOutput(tag),
				defines:  []build.Define{{Key: e.opts.TagDefine, Value: tag}},
			})
		}
	}

	seen := make(map[string]string, len(plan))
	for _, out := range plan {
		if prev, ok := seen[out.name]; ok {
			return nil, errors.NewConfigError(errors.ErrCodeTagCollision,
				fmt.Sprintf("%s and %s both generate %s", prev, out.template.Name, out.name))
		}
		seen[out.name] = out.template.Name
	}

	return plan, nil
}

func (e *Engine) tagOutput(tag string) string {
	return store.Join(e.opts.TagDir, tag+e.opts.Extension)
}

// sweepable reports whether the sweep manages name: it carries the output
// extension and lives where the sweep looks.
func (e *Engine) sweepable(name string) bool {
	if !strings.HasSuffix(name, e.opts.Extension) {
		return false
	}
	if e.opts.Recursive {
		return true
	}
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(name)))
	return dir == "." || (e.opts.TagDir != "" && dir == filepath.ToSlash(filepath.Clean(e.opts.TagDir)))
}

func (e *Engine) protected(name string) bool {
	for _, tag := range e.opts.Protected {
		if name == e.tagOutput(tag) {
			return true
		}
	}
	return false
}

// sweep removes destination files that are neither planned outputs nor
// protected. The live set and the listing are both complete before the first
// removal.
func (e *Engine) sweep(ctx context.Context, dest *store.Store, plan []output) ([]string, error) {
	live := make(map[string]bool, len(plan))
	for _, out := range plan {
		live[out.name] = true
	}

	existing, err := dest.List("", e.opts.Extension, e.opts.Recursive)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to list destination", dest.Root(), err)
	}
	if !e.opts.Recursive && e.opts.TagDir != "" {
		tagged, err := dest.List(e.opts.TagDir, e.opts.Extension, false)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeDestinationAccess,
				"failed to list destination", dest.Path(e.opts.TagDir), err)
		}
		existing = append(existing, tagged...)
		sort.Strings(existing)
	}

	var stale []string
	for _, name := range existing {
		if live[name] || !e.sweepable(name) {
			continue
		}
		if e.protected(name) {
			e.logger.Debug(ctx, "Keeping protected output", "output", name)
			continue
		}
		stale = append(stale, name)
	}

	var removed []string
	for _, name := range stale {
		if err := dest.Remove(name); err != nil {
			return removed, errors.NewIOError(errors.ErrCodeDestinationAccess,
				"failed to remove stale output", dest.Path(name), err)
		}
		removed = append(removed, name)
		e.logger.Info(ctx, "Removed stale generated file", "output", name)
	}

	return removed, nil
}
