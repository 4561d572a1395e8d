package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitService_InitProject(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "server")
	service := NewInitService()

	path, err := service.InitProject(InitOptions{ProjectDir: projectDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projectDir, ConfigFileName), path)

	assert.DirExists(t, filepath.Join(projectDir, "Sources", "App"))
	assert.DirExists(t, filepath.Join(projectDir, "Sources", "App", "gyb", "Models"))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTags, cfg.Tags)

	_, err = service.InitProject(InitOptions{ProjectDir: projectDir})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	require.NoError(t, os.WriteFile(path, []byte("tags: []\n"), 0644))
	_, err = service.InitProject(InitOptions{ProjectDir: projectDir, Force: true})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "- Blog")
}
