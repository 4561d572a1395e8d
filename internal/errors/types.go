package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents the categories of failure a regeneration pass can end in.
type ErrorKind string

const (
	KindToolNotFound         ErrorKind = "tool_not_found"
	KindExpansionFailed      ErrorKind = "expansion_failed"
	KindVerificationMismatch ErrorKind = "verification_mismatch"
	KindConfig               ErrorKind = "config"
	KindIO                   ErrorKind = "io"
	KindToolchain            ErrorKind = "toolchain"
)

// Common error codes.
const (
	ErrCodeExpanderMissing   = "ERR_EXPANDER_MISSING"
	ErrCodePromoterMissing   = "ERR_PROMOTER_MISSING"
	ErrCodeExpansionFailed   = "ERR_EXPANSION_FAILED"
	ErrCodeExpansionTimeout  = "ERR_EXPANSION_TIMEOUT"
	ErrCodeCancelled         = "ERR_CANCELLED"
	ErrCodeGeneratedDrift    = "ERR_GENERATED_DRIFT"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeTagCollision      = "ERR_TAG_COLLISION"
	ErrCodeToolchainMissing  = "ERR_TOOLCHAIN_MISSING"
	ErrCodeToolchainFailed   = "ERR_TOOLCHAIN_FAILED"
	ErrCodeDestinationAccess = "ERR_DESTINATION_ACCESS"
)

// DegybError is a structured error type carrying the failing command and its
// captured output when a subprocess was involved.
type DegybError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
	Path    string
	Command []string
	Output  string
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DegybError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.Path))
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DegybError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DegybError of the same kind and code.
func (e *DegybError) Is(target error) bool {
	var t *DegybError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}

	return false
}

// CommandLine renders the failing command the way a shell user would type it.
func (e *DegybError) CommandLine() string {
	return QuoteCommand(e.Command)
}

// WithContext adds context information to the error.
func (e *DegybError) WithContext(key string, value interface{}) *DegybError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewToolNotFoundError reports a required external tool that could not be
// resolved before any work started.
func NewToolNotFoundError(code, tool string, cause error) *DegybError {
	return &DegybError{
		Kind:    KindToolNotFound,
		Code:    code,
		Message: "could not find " + tool,
		Path:    tool,
		Cause:   cause,
	}
}

// NewExpansionError reports a template expansion subprocess that failed.
func NewExpansionError(code, template string, command []string, output string, cause error) *DegybError {
	return &DegybError{
		Kind:    KindExpansionFailed,
		Code:    code,
		Message: "expanding template failed",
		Path:    template,
		Command: command,
		Output:  output,
		Cause:   cause,
	}
}

// NewVerificationError reports committed generated files that drifted from
// their templates. The report is the rendered difference.
func NewVerificationError(destination string, count int, report string) *DegybError {
	return &DegybError{
		Kind:    KindVerificationMismatch,
		Code:    ErrCodeGeneratedDrift,
		Message: fmt.Sprintf("%d generated file(s) do not match their templates", count),
		Path:    destination,
		Output:  report,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DegybError {
	return &DegybError{
		Kind:    KindConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message, path string, cause error) *DegybError {
	return &DegybError{
		Kind:    KindIO,
		Code:    code,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// NewToolchainError reports a failed package manager invocation.
func NewToolchainError(code, message string, command []string, cause error) *DegybError {
	return &DegybError{
		Kind:    KindToolchain,
		Code:    code,
		Message: message,
		Command: command,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first DegybError in err's chain, or the
// empty kind when there is none.
func KindOf(err error) ErrorKind {
	var de *DegybError
	if errors.As(err, &de) {
		return de.Kind
	}

	return ""
}

// IsToolNotFound checks if an error reports a missing tool.
func IsToolNotFound(err error) bool {
	return KindOf(err) == KindToolNotFound
}

// IsExpansionFailed checks if an error reports a failed expansion.
func IsExpansionFailed(err error) bool {
	return KindOf(err) == KindExpansionFailed
}

// IsVerificationMismatch checks if an error reports generated file drift.
func IsVerificationMismatch(err error) bool {
	return KindOf(err) == KindVerificationMismatch
}

// IsConfigError checks if an error is configuration related.
func IsConfigError(err error) bool {
	return KindOf(err) == KindConfig
}

// IsCancelled checks if an error reports work stopped by the caller rather
// than a failure of the work itself.
func IsCancelled(err error) bool {
	var de *DegybError
	return errors.As(err, &de) && de.Code == ErrCodeCancelled
}

// QuoteCommand joins argv into a single line, quoting arguments that contain
// spaces or double quotes.
func QuoteCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if strings.ContainsAny(arg, "\" ") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		quoted[i] = arg
	}

	return strings.Join(quoted, " ")
}
