package regen

import (
	"context"
	"os"

	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/store"
	"github.com/conneroisu/degyb/internal/treediff"
)

// Verify regenerates into a private destination and compares it with the
// real one, which is never written. It returns a verification error listing
// the differences when the committed outputs drifted from their templates.
//
// Committed files a pass would leave alone, such as protected outputs or
// files without the output extension, do not count as drift.
func (e *Engine) Verify(ctx context.Context) (*VerifyReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scratchDest, err := os.MkdirTemp("", "degyb-verify-")
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to create verification directory", os.TempDir(), err)
	}
	defer os.RemoveAll(scratchDest)

	fresh, err := e.regenerate(ctx, store.New(e.fs, scratchDest))
	if err != nil {
		return nil, err
	}

	diffs, err := treediff.NewComparer(e.fs).Compare(scratchDest, e.opts.Destination)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to compare generated files", e.opts.Destination, err)
	}

	report := &VerifyReport{Generated: len(fresh.Written) + len(fresh.Unchanged)}
	for _, d := range diffs {
		if d.Status == treediff.OnlyInCommitted && (!e.sweepable(d.Path) || e.protected(d.Path)) {
			continue
		}
		report.Differences = append(report.Differences, d)
	}

	if !report.UpToDate() {
		e.logger.Warn(ctx, nil, "Generated files are out of date",
			"differences", len(report.Differences), "destination", e.opts.Destination)
		return report, errors.NewVerificationError(e.opts.Destination,
			len(report.Differences), treediff.Render(report.Differences))
	}

	e.logger.Info(ctx, "Generated files are up to date", "outputs", report.Generated)
	return report, nil
}
