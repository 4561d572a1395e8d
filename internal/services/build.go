package services

import (
	"context"
	"time"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/toolchain"
)

// Failure stages as reported to the user.
const (
	StageGenerate = "Generating gyb files failed"
	StageVerify   = "Gyb-generated files committed to repository do not match generated ones. Please re-generate the gyb-files and recommit them."
	StageBuild    = "Building product failed"
	StageTest     = "Running tests failed"
)

// BuildService orchestrates regeneration, verification and the package
// manager steps that consume the generated files.
type BuildService struct {
	config *config.Config
	engine *regen.Engine
	runner *toolchain.Runner
	logger logging.Logger
}

// NewBuildService wires the engine and toolchain runner for cfg. env is the
// complete subprocess environment.
func NewBuildService(cfg *config.Config, env []string, logger logging.Logger) (*BuildService, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	engine, err := regen.NewFromConfig(cfg, env, logger)
	if err != nil {
		return nil, err
	}

	return &BuildService{
		config: cfg,
		engine: engine,
		runner: toolchain.NewRunner(cfg.Toolchain, env, cfg.Verbose, logger),
		logger: logger,
	}, nil
}

// Engine returns the regeneration engine.
func (s *BuildService) Engine() *regen.Engine {
	return s.engine
}

// Runner returns the toolchain runner.
func (s *BuildService) Runner() *toolchain.Runner {
	return s.runner
}

// BuildOptions contains options for the build process
type BuildOptions struct {
	// SkipGenerate builds the destination as it is.
	SkipGenerate bool
	// Verify checks the committed generated files instead of regenerating
	// them.
	Verify bool
	// Test runs the test product after building.
	Test bool
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Duration   time.Duration
	Generation *regen.Report
	Verified   *regen.VerifyReport
	Built      bool
	Tested     bool
}

// Generate regenerates the destination.
func (s *BuildService) Generate(ctx context.Context) (*regen.Report, error) {
	report, err := s.engine.Regenerate(ctx)
	if err != nil {
		return report, errors.NewFailure(StageGenerate, err)
	}
	return report, nil
}

// Verify checks the committed generated files against their templates.
func (s *BuildService) Verify(ctx context.Context) (*regen.VerifyReport, error) {
	report, err := s.engine.Verify(ctx)
	if err != nil {
		if errors.IsVerificationMismatch(err) {
			return report, errors.NewFailure(StageVerify, err)
		}
		return report, errors.NewFailure(StageGenerate, err)
	}
	return report, nil
}

// Build prepares the generated sources, builds the product and optionally
// runs the tests. It stops at the first failing step.
func (s *BuildService) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{}
	defer func() { result.Duration = time.Since(startTime) }()

	switch {
	case opts.Verify:
		report, err := s.Verify(ctx)
		result.Verified = report
		if err != nil {
			return result, err
		}
	case !opts.SkipGenerate:
		report, err := s.Generate(ctx)
		result.Generation = report
		if err != nil {
			return result, err
		}
	}

	if err := s.runner.Check(); err != nil {
		return result, errors.NewFailure(StageBuild, err)
	}

	if err := s.runner.Build(ctx); err != nil {
		return result, errors.NewFailure(StageBuild, err)
	}
	result.Built = true

	if !opts.Test {
		return result, nil
	}

	if err := s.runner.Test(ctx); err != nil {
		return result, errors.NewFailure(StageTest, err)
	}
	result.Tested = true
	s.logger.Info(ctx, "All tests passed")

	return result, nil
}
