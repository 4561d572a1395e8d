package config

import (
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

// Environment computes the explicit environment handed to every subprocess.
// base is usually os.Environ(); values from toolchain.env_file override it and
// toolchain.env overrides both.
func (c *Config) Environment(base []string) ([]string, error) {
	merged := make(map[string]string, len(base))
	for _, entry := range base {
		key, value, ok := strings.Cut(entry, "=")
		if ok && key != "" {
			merged[key] = value
		}
	}

	if c.Toolchain.EnvFile != "" {
		fromFile, err := godotenv.Read(c.Toolchain.EnvFile)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read env file %s", c.Toolchain.EnvFile)
		}
		for key, value := range fromFile {
			merged[key] = value
		}
	}

	for _, entry := range c.Toolchain.Env {
		key, value, _ := strings.Cut(entry, "=")
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+merged[key])
	}

	return env, nil
}
