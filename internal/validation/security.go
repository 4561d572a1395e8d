// Package validation provides checks for the names and paths degyb turns
// into files and subprocess arguments.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// shellMetacharacters never appear in a well-formed tag, path or define.
var shellMetacharacters = []string{";", "&", "|", "$", "`", "<", ">"}

// ValidateArgument validates a single argument passed to the expander or
// package manager.
func ValidateArgument(arg string) error {
	if strings.ContainsRune(arg, 0) {
		return fmt.Errorf("contains null byte")
	}

	for _, char := range shellMetacharacters {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidatePath validates a configured file or directory path.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := ValidateArgument(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}

	return nil
}

// ValidateTag checks that tag can be used both as a file name stem and as
// the value of a -D define.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag cannot be empty")
	}

	if strings.HasPrefix(tag, ".") {
		return fmt.Errorf("tag %q must not start with a dot", tag)
	}

	if strings.ContainsAny(tag, `/\`) || filepath.Base(tag) != tag {
		return fmt.Errorf("tag %q must not contain path separators", tag)
	}

	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return fmt.Errorf("tag %q contains invalid character %q", tag, r)
		}
	}

	return nil
}

// ValidateExtension validates an output extension such as ".swift".
func ValidateExtension(ext string) error {
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return fmt.Errorf("extension %q must start with a dot", ext)
	}

	if strings.ContainsAny(ext, `/\`) {
		return fmt.Errorf("extension %q must not contain path separators", ext)
	}

	return nil
}
