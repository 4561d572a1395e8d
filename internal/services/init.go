package services

import (
	"os"
	"path/filepath"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
)

// ConfigFileName is the configuration file degyb looks for.
const ConfigFileName = ".degyb.yml"

// InitService handles project initialization
type InitService struct{}

// NewInitService creates a new initialization service
func NewInitService() *InitService {
	return &InitService{}
}

// InitOptions contains options for project initialization
type InitOptions struct {
	ProjectDir string
	// Force overwrites an existing configuration file.
	Force bool
}

// InitProject writes a default configuration file and creates the template
// root and destination directories it names. It returns the path of the
// configuration file.
func (s *InitService) InitProject(opts InitOptions) (string, error) {
	if err := os.MkdirAll(opts.ProjectDir, 0755); err != nil {
		return "", errors.NewIOError(errors.ErrCodeDestinationAccess,
			"cannot create project directory", opts.ProjectDir, err)
	}

	path := filepath.Join(opts.ProjectDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return "", errors.NewConfigError(errors.ErrCodeConfigInvalid,
			path+" already exists, use --force to overwrite it")
	}

	cfg := config.Default()

	dirs := []string{
		cfg.Templates.Root,
		cfg.Destination.Path,
		filepath.Join(cfg.Destination.Path, cfg.Destination.TagDir),
	}
	for _, dir := range dirs {
		dirPath := filepath.Join(opts.ProjectDir, dir)
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return "", errors.NewIOError(errors.ErrCodeDestinationAccess,
				"failed to create directory", dirPath, err)
		}
	}

	data, err := cfg.YAML()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.NewIOError(errors.ErrCodeDestinationAccess,
			"failed to write configuration", path, err)
	}

	return path, nil
}
