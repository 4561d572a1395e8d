package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/watcher"
)

// WatchService regenerates the destination whenever templates change.
type WatchService struct {
	engine *regen.Engine
	logger logging.Logger
}

// NewWatchService creates a watch service around engine.
func NewWatchService(engine *regen.Engine, logger logging.Logger) *WatchService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &WatchService{engine: engine, logger: logger.WithComponent("watch")}
}

// WatchOptions contains options for the watch loop
type WatchOptions struct {
	Debounce time.Duration
	// OnPass is called after every pass, including the initial one.
	OnPass func(report *regen.Report, err error)
}

// Watch runs an initial pass and then one pass per debounced batch of
// template changes until ctx is done. Failed passes are reported and the
// loop keeps going.
func (s *WatchService) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}

	o := s.engine.Options()

	fw, err := watcher.NewFileWatcher(opts.Debounce, s.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.TemplateFilter(o.Suffix, o.TagSuffix))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.ExcludeDirFilter(o.Destination))

	pass := func(ctx context.Context) {
		report, err := s.engine.Regenerate(ctx)
		if err != nil && ctx.Err() != nil {
			// Shutting down, not a failed pass.
			s.logger.Debug(ctx, "Pass interrupted by shutdown", "written", len(report.Written))
			return
		}
		if opts.OnPass != nil {
			opts.OnPass(report, err)
		}
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug(ctx, "Template changed", "path", event.Path, "type", event.Type.String())
		}
		pass(ctx)
		return nil
	})

	if o.Recursive {
		err = fw.AddRecursive(o.TemplateRoot, o.Destination)
	} else {
		err = fw.AddPath(o.TemplateRoot)
	}
	if err != nil {
		return err
	}

	pass(ctx)

	if err := fw.Start(ctx); err != nil {
		return err
	}

	root, _ := filepath.Abs(o.TemplateRoot)
	s.logger.Info(ctx, "Watching templates", "root", root)

	<-ctx.Done()
	return nil
}
