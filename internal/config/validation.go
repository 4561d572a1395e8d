package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/logging"
	"github.com/conneroisu/degyb/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

// Validate performs validation with detailed feedback.
func Validate(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateLogging(config, result)
	validateTemplates(&config.Templates, result)
	validateDestination(&config.Destination, result)
	validateTags(config, result)
	validateExpander(&config.Expander, result)
	validateToolchain(&config.Toolchain, result)

	switch config.Promoter {
	case PromoterNative, PromoterRsync:
	default:
		result.addError("promoter", config.Promoter, "unknown promoter",
			"Use 'native' for in-process compare and rename",
			"Use 'rsync' to promote with rsync --checksum")
	}

	return result
}

// validateConfig turns validation errors into a single config error.
func validateConfig(config *Config) error {
	result := Validate(config)
	if !result.HasErrors() {
		return nil
	}

	first := result.Errors[0]
	err := errors.NewConfigError(errors.ErrCodeConfigInvalid, first.Error())
	err.WithContext("report", result.String())

	return err
}

func validateLogging(config *Config, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		result.addError("log_level", config.LogLevel, err.Error())
	}

	if config.LogFormat != "text" && config.LogFormat != "json" {
		result.addError("log_format", config.LogFormat, "log format must be 'text' or 'json'")
	}
}

func validateTemplates(config *TemplatesConfig, result *ValidationResult) {
	if err := validation.ValidatePath(config.Root); err != nil {
		result.addError("templates.root", config.Root, err.Error())
	}

	if config.Suffix == "" || config.TagSuffix == "" {
		result.addError("templates.suffix", config.Suffix, "template suffixes cannot be empty")
		return
	}

	if config.Suffix == config.TagSuffix {
		result.addError("templates.tag_suffix", config.TagSuffix,
			"tag template suffix must differ from the plain template suffix",
			"The defaults are '.gyb' and '.gyb.template'")
	}
}

func validateDestination(config *DestinationConfig, result *ValidationResult) {
	if err := validation.ValidatePath(config.Path); err != nil {
		result.addError("destination.path", config.Path, err.Error())
	}

	if config.TagDir != "" {
		if strings.HasPrefix(config.TagDir, "/") || strings.Contains(config.TagDir, "..") {
			result.addError("destination.tag_dir", config.TagDir,
				"tag directory must be relative to the destination and stay inside it")
		}
	}

	if err := validation.ValidateExtension(config.Extension); err != nil {
		result.addError("destination.extension", config.Extension, err.Error())
	}

	for _, tag := range config.Protected {
		if err := validation.ValidateTag(tag); err != nil {
			result.addError("destination.protected", tag, err.Error())
		}
	}
}

func validateTags(config *Config, result *ValidationResult) {
	seen := make(map[string]bool, len(config.Tags))
	for _, tag := range config.Tags {
		if err := validation.ValidateTag(tag); err != nil {
			result.addError("tags", tag, err.Error())
			continue
		}
		if seen[tag] {
			result.addError("tags", tag, fmt.Sprintf("duplicate tag %q", tag),
				"Each tag produces one output file, list it once")
		}
		seen[tag] = true
	}

	for _, tag := range config.Destination.Protected {
		if !seen[tag] {
			result.addWarning("destination.protected", tag,
				fmt.Sprintf("protected tag %q is not in the tag set; its output is kept but never regenerated", tag))
		}
	}
}

func validateExpander(config *ExpanderConfig, result *ValidationResult) {
	if err := validation.ValidatePath(config.Path); err != nil {
		result.addError("expander.path", config.Path, err.Error(),
			"Point expander.path at the gyb script, e.g. utils/gyb")
	}

	if config.TagDefine == "" || strings.ContainsAny(config.TagDefine, "= ") {
		result.addError("expander.tag_define", config.TagDefine,
			"tag define must be a bare identifier such as EMIT_KIND")
	}

	if config.Timeout < 0 {
		result.addError("expander.timeout", config.Timeout, "timeout cannot be negative")
	}
}

func validateToolchain(config *ToolchainConfig, result *ValidationResult) {
	switch config.TestDiscovery {
	case TestDiscoveryAuto, TestDiscoveryOn, TestDiscoveryOff:
	default:
		result.addError("toolchain.test_discovery", config.TestDiscovery,
			"test discovery must be one of auto, on, off")
	}

	for _, entry := range config.Env {
		if !strings.Contains(entry, "=") || strings.HasPrefix(entry, "=") {
			result.addError("toolchain.env", entry, "environment entries must have the form KEY=VALUE")
		}
	}
}
