// Package internal contains the core implementation packages for degyb.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - scanner: Template discovery, plain and tag templates
//   - build: gyb expander subprocess, promoters and pass metrics
//   - store: Destination store with copy-if-different promotion
//   - regen: Regeneration engine, stale sweep and verification
//   - treediff: Content comparison of generated and committed trees
//   - toolchain: Package manager build and test invocations
//   - watcher: File system monitoring with debouncing
//   - services: Orchestration used by the CLI commands
//   - config: Configuration loading and validation
//   - errors: Structured errors and FAIL rendering
//   - logging: Structured logging
//
// # Data Flow
//
// A regeneration pass flows in one direction:
//
//   - Scanner lists templates below the template root
//   - Engine plans one output per plain template and one per tag for each
//     tag template, rejecting colliding output names
//   - Expander writes each output into a scratch directory
//   - Promoter copies it into the store only when its bytes changed
//   - Engine removes outputs no template produces any more
//
// Verification runs the same pass into a temporary destination and hands
// both trees to treediff.
package internal
