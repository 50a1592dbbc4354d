package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jmc/jmc/schema"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/project")
	require.NoError(t, err)

	assert.Equal(t, schema.DefaultFileTypes, cfg.FileTypes)
	assert.Equal(t, DefaultBuiltinFunctions, cfg.Builtins.Functions)
	assert.Equal(t, schema.DefaultBaseURL, cfg.Schema.BaseURL)
	assert.Equal(t, schema.DefaultTimeout, cfg.Schema.Timeout)
	assert.False(t, cfg.Schema.Validate)
	assert.Equal(t, 0, cfg.Log.Verbosity)
	assert.Empty(t, cfg.File)
	assert.True(t, cfg.Registry().Contains("advancements"))
}

func TestLoadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jmc.yaml", []byte(`
file_types:
  - recipes
  - tags
builtins:
  functions: [print, printf, tellraw]
schema:
  base_url: http://localhost:9999
  timeout: 250ms
  validate: true
log:
  verbosity: 2
`), 0o644))

	cfg, err := Load(fs, "/project")
	require.NoError(t, err)

	assert.Equal(t, []string{"recipes", "tags"}, cfg.FileTypes)
	assert.Equal(t, []string{"print", "printf", "tellraw"}, cfg.Builtins.Functions)
	assert.Equal(t, DefaultBuiltinClasses, cfg.Builtins.Classes)
	assert.Equal(t, "http://localhost:9999", cfg.Schema.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Schema.Timeout)
	assert.True(t, cfg.Schema.Validate)
	assert.Equal(t, 2, cfg.Log.Verbosity)
	assert.Equal(t, "/project/.jmc.yaml", cfg.File)
	assert.False(t, cfg.Registry().Contains("advancements"))
}

func TestLoadEnvFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jmc.yaml", []byte("log:\n  verbosity: 1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/project/.env", []byte("JMC_LOG_VERBOSITY=3\nJMC_SCHEMA_VALIDATE=true\nOTHER=x\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/project/.env.local", []byte("JMC_LOG_VERBOSITY=4\n"), 0o644))

	cfg, err := Load(fs, "/project")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Log.Verbosity)
	assert.True(t, cfg.Schema.Validate)
}

func TestLoadEnvironmentWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.env", []byte("JMC_SCHEMA_TIMEOUT=1s\n"), 0o644))
	t.Setenv("JMC_SCHEMA_TIMEOUT", "3s")
	t.Setenv("JMC_FILE_TYPES", "recipes loot_tables")

	cfg, err := Load(fs, "/project")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Schema.Timeout)
	assert.Equal(t, []string{"recipes", "loot_tables"}, cfg.FileTypes)
}

func TestLoadInvalidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jmc.yaml", []byte("log: [unclosed"), 0o644))

	_, err := Load(fs, "/project")
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "JMC_SCHEMA_BASE_URL", EnvName("schema.base_url"))
	assert.Equal(t, "JMC_FILE_TYPES", EnvName("file_types"))
}
