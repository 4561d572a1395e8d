// Package config provides configuration management for degyb using Viper
// for loading from .degyb.yml, DEGYB_ environment variables, and
// command-line flags.
//
// The configuration names where templates live, where their expansions are
// written, which tags fan a shared template out into per-tag outputs, how the
// gyb expander is invoked, how generated files are promoted, and how the
// package manager is driven for build and test.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Promoter names.
const (
	PromoterNative = "native"
	PromoterRsync  = "rsync"
)

// Test discovery modes for the package manager.
const (
	TestDiscoveryAuto = "auto"
	TestDiscoveryOn   = "on"
	TestDiscoveryOff  = "off"
)

// DefaultTags are the model kinds the shared Fluent template is expanded for.
var DefaultTags = []string{
	"Blog",
	"BlogCategory",
	"Education",
	"Experience",
	"Industry",
	"Project",
	"Skill",
	"SocialNetworking",
	"SocialNetworkingService",
	"User",
}

type Config struct {
	LogLevel    string            `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string            `mapstructure:"log_format" yaml:"log_format"`
	Verbose     bool              `mapstructure:"verbose" yaml:"verbose"`
	Templates   TemplatesConfig   `mapstructure:"templates" yaml:"templates"`
	Destination DestinationConfig `mapstructure:"destination" yaml:"destination"`
	Tags        []string          `mapstructure:"tags" yaml:"tags"`
	Expander    ExpanderConfig    `mapstructure:"expander" yaml:"expander"`
	Promoter    string            `mapstructure:"promoter" yaml:"promoter"`
	Toolchain   ToolchainConfig   `mapstructure:"toolchain" yaml:"toolchain"`
}

type TemplatesConfig struct {
	Root      string `mapstructure:"root" yaml:"root"`
	Recursive bool   `mapstructure:"recursive" yaml:"recursive"`
	Suffix    string `mapstructure:"suffix" yaml:"suffix"`
	TagSuffix string `mapstructure:"tag_suffix" yaml:"tag_suffix"`
}

type DestinationConfig struct {
	Path      string `mapstructure:"path" yaml:"path"`
	TagDir    string `mapstructure:"tag_dir" yaml:"tag_dir"`
	Extension string `mapstructure:"extension" yaml:"extension"`
	// Protected lists tags whose outputs are never swept, even after the tag
	// leaves the tag set.
	Protected []string `mapstructure:"protected" yaml:"protected"`
}

type ExpanderConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	Interpreter    string        `mapstructure:"interpreter" yaml:"interpreter"`
	Args           string        `mapstructure:"args" yaml:"args"`
	TagDefine      string        `mapstructure:"tag_define" yaml:"tag_define"`
	LineDirectives bool          `mapstructure:"line_directives" yaml:"line_directives"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type ToolchainConfig struct {
	Path              string   `mapstructure:"path" yaml:"path"`
	PackagePath       string   `mapstructure:"package_path" yaml:"package_path"`
	PackageName       string   `mapstructure:"package_name" yaml:"package_name"`
	Product           string   `mapstructure:"product" yaml:"product"`
	TestProduct       string   `mapstructure:"test_product" yaml:"test_product"`
	BuildDir          string   `mapstructure:"build_dir" yaml:"build_dir"`
	MultirootDataFile string   `mapstructure:"multiroot_data_file" yaml:"multiroot_data_file"`
	Release           bool     `mapstructure:"release" yaml:"release"`
	DisableSandbox    bool     `mapstructure:"disable_sandbox" yaml:"disable_sandbox"`
	TestDiscovery     string   `mapstructure:"test_discovery" yaml:"test_discovery"`
	EnvFile           string   `mapstructure:"env_file" yaml:"env_file"`
	Env               []string `mapstructure:"env" yaml:"env"`
}

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds a Config from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(v, &config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(v *viper.Viper, config *Config) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}

	if config.Templates.Root == "" {
		config.Templates.Root = "Sources/App"
	}
	if config.Templates.Suffix == "" {
		config.Templates.Suffix = ".gyb"
	}
	if config.Templates.TagSuffix == "" {
		config.Templates.TagSuffix = ".gyb.template"
	}

	if config.Destination.Path == "" {
		config.Destination.Path = "Sources/App/gyb"
	}
	if !v.IsSet("destination.tag_dir") && config.Destination.TagDir == "" {
		config.Destination.TagDir = "Models"
	}
	if config.Destination.Extension == "" {
		config.Destination.Extension = ".swift"
	}

	// An explicitly empty tag list disables tag expansion.
	if !v.IsSet("tags") && len(config.Tags) == 0 {
		config.Tags = append([]string(nil), DefaultTags...)
	}

	if config.Expander.Path == "" {
		config.Expander.Path = "utils/gyb"
	}
	if !v.IsSet("expander.interpreter") && config.Expander.Interpreter == "" {
		config.Expander.Interpreter = "python3"
	}
	if config.Expander.TagDefine == "" {
		config.Expander.TagDefine = "EMIT_KIND"
	}
	if config.Expander.Timeout == 0 {
		config.Expander.Timeout = 5 * time.Minute
	}

	if config.Promoter == "" {
		config.Promoter = PromoterNative
	}

	if config.Toolchain.Path == "" {
		config.Toolchain.Path = "/usr"
	}
	if config.Toolchain.PackagePath == "" {
		config.Toolchain.PackagePath = "."
	}
	if config.Toolchain.PackageName == "" {
		config.Toolchain.PackageName = "swift-website-server"
	}
	if config.Toolchain.Product == "" {
		config.Toolchain.Product = "Run"
	}
	if config.Toolchain.TestProduct == "" {
		config.Toolchain.TestProduct = config.Toolchain.PackageName + "PackageTests"
	}
	if config.Toolchain.TestDiscovery == "" {
		config.Toolchain.TestDiscovery = TestDiscoveryAuto
	}
	if !v.IsSet("toolchain.env") && len(config.Toolchain.Env) == 0 {
		config.Toolchain.Env = []string{
			"SWIFT_BUILD_SCRIPT_ENVIRONMENT=1",
			"SWIFTCI_USE_LOCAL_DEPS=1",
		}
	}
}
