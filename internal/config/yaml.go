package config

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// YAML renders the configuration in the .degyb.yml layout.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, eris.Wrap(err, "failed to encode configuration")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "failed to encode configuration")
	}
	return buf.Bytes(), nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(viper.New(), cfg)
	return cfg
}
