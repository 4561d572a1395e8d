package build

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// Promoter copies a freshly expanded file from scratch space into the
// destination store. Identical content must leave the destination file
// untouched.
type Promoter interface {
	Name() string
	// Check verifies any external tool the promoter needs.
	Check() error
	// Promote moves the file at scratchPath into the store under name and
	// reports whether the destination changed.
	Promote(ctx context.Context, scratchPath, name string) (bool, error)
}

// NativePromoter compares bytes in process and renames a temporary file into
// place when they differ.
type NativePromoter struct {
	scratch afero.Fs
	dest    *store.Store
}

// NewNativePromoter promotes into dest, reading scratch files from the OS
// filesystem.
func NewNativePromoter(dest *store.Store) *NativePromoter {
	return &NativePromoter{scratch: afero.NewOsFs(), dest: dest}
}

// Name returns "native".
func (p *NativePromoter) Name() string { return "native" }

// Check always succeeds since no external tool is involved.
func (p *NativePromoter) Check() error { return nil }

// Promote reads the expanded file and writes it to the store if its bytes differ.
func (p *NativePromoter) Promote(_ context.Context, scratchPath, name string) (bool, error) {
	content, err := afero.ReadFile(p.scratch, scratchPath)
	if err != nil {
		return false, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to read expanded file", scratchPath, err)
	}

	changed, err := p.dest.Promote(name, content)
	if err != nil {
		return false, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to promote generated file", p.dest.Path(name), err)
	}

	return changed, nil
}

// RsyncPromoter delegates the compare and copy to rsync --checksum, which
// skips files whose content already matches.
type RsyncPromoter struct {
	binary string
	dest   *store.Store
	env    []string
	logger logging.Logger
}

// NewRsyncPromoter promotes into dest with the rsync found on PATH.
func NewRsyncPromoter(dest *store.Store, env []string, logger logging.Logger) *RsyncPromoter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RsyncPromoter{
		binary: "rsync",
		dest:   dest,
		env:    env,
		logger: logger.WithComponent("promoter"),
	}
}

// Name returns "rsync".
func (p *RsyncPromoter) Name() string { return "rsync" }

// Check fails when rsync is not on PATH.
func (p *RsyncPromoter) Check() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return errors.NewToolNotFoundError(errors.ErrCodePromoterMissing, p.binary, err)
	}
	return nil
}

// Promote copies the expanded file with rsync and reports whether rsync itemized a change.
func (p *RsyncPromoter) Promote(ctx context.Context, scratchPath, name string) (bool, error) {
	if err := p.dest.EnsureParent(name); err != nil {
		return false, errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to prepare destination", p.dest.Path(name), eris.Cause(err))
	}

	target := p.dest.Path(name)
	argv := []string{p.binary, "--checksum", "--itemize-changes", scratchPath, target}

	p.logger.Debug(ctx, "Executing promoter", "command", errors.QuoteCommand(argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = p.env
	cmd.Dir = filepath.Dir(scratchPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		rerr := errors.NewIOError(errors.ErrCodeDestinationAccess, "rsync failed", target, err)
		rerr.Command = argv
		rerr.Output = string(output)
		return false, rerr
	}

	// --itemize-changes prints one line per transferred file and nothing
	// for files it skipped.
	return strings.TrimSpace(string(output)) != "", nil
}
