// Package cmd provides the command-line interface for degyb.
//
// This package implements the CLI commands using the Cobra framework. Each
// command loads the configuration through Viper, builds the services it
// needs and reports failures in the FAIL / Executing / output layout.
//
// # Available Commands
//
//   - generate: Regenerate the gyb destination, skipping unchanged files
//   - verify: Check that committed generated files match their templates
//   - build: Regenerate (or verify) and build the product
//   - test: Build and run the test product
//   - watch: Regenerate whenever templates change
//   - config: Show or validate the effective configuration
//   - init: Write a default .degyb.yml
//   - version: Show build information
//
// # Command Examples
//
//	// Regenerate with a custom expander and tag list
//	degyb generate --expander tools/gyb --tag Blog --tag User
//
//	// Fail in CI when generated files drifted
//	degyb verify
//
//	// Verify, build and test in release mode
//	degyb test --verify --release
package cmd
