// Package errors defines the structured errors degyb reports and the
// rendering used when a command fails.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Failure describes one failed stage of a degyb run as it is printed to the
// user.
type Failure struct {
	Stage   string
	Err     error
	Command string
	Output  string
}

// NewFailure extracts command and output details from err when it carries
// them.
func NewFailure(stage string, err error) *Failure {
	f := &Failure{Stage: stage, Err: err}

	var de *DegybError
	if errors.As(err, &de) {
		if len(de.Command) > 0 {
			f.Command = de.CommandLine()
		}
		f.Output = de.Output
	}

	return f
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure finds the Failure in err's chain, or describes err as a failure
// of stage when there is none.
func AsFailure(err error, stage string) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(stage, err)
}

// String renders the failure in the FAIL / Executing / output layout.
func (f *Failure) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "FAIL: %s\n", f.Stage)
	if f.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", f.Err)
	}
	if f.Command != "" {
		fmt.Fprintf(&b, "Executing: %s\n", f.Command)
	}
	if out := strings.TrimRight(f.Output, "\n"); out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}

	return b.String()
}
