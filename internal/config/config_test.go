package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `source: sqlserver://sa@prod-server?database=app
destination: sqlserver://sa@dev-server?database=app_dev

connection:
  host: myhost
  port: 1434
  instance: SQLEXPRESS
  username: myuser
  database: mydb
  encrypt: strict
  trust_server_certificate: true

clone:
  include_data: true
  max_passes: 8
  script_dir: ./scripts
  stages:
    - name: indexes
      max_passes: 3
    - name: data
      skip: true

timeout: 10m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlserver://sa@prod-server?database=app", cfg.Source)
	assert.Equal(t, "sqlserver://sa@dev-server?database=app_dev", cfg.Destination)
	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 1434, cfg.Connection.Port)
	assert.Equal(t, "SQLEXPRESS", cfg.Connection.Instance)
	assert.Equal(t, "myuser", cfg.Connection.Username)
	assert.Equal(t, "mydb", cfg.Connection.Database)
	assert.Equal(t, "strict", cfg.Connection.Encrypt)
	assert.True(t, cfg.Connection.TrustServerCertificate)
	assert.True(t, cfg.Clone.IncludeData)
	assert.Equal(t, 8, cfg.Clone.MaxPasses)
	assert.Equal(t, "./scripts", cfg.Clone.ScriptDir)
	require.Len(t, cfg.Clone.Stages, 2)
	assert.Equal(t, "indexes", cfg.Clone.Stages[0].Name)
	assert.Equal(t, 3, cfg.Clone.Stages[0].MaxPasses)
	assert.True(t, cfg.Clone.Stages[1].Skip)
	assert.Equal(t, "10m", cfg.Timeout)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	content := `clone:
  include_data: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "", cfg.Connection.Host)
	assert.Equal(t, 0, cfg.Connection.Port)
	assert.False(t, cfg.Clone.IncludeData)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(""), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ProjectConfig{}, *cfg)
}

func TestStageOverride(t *testing.T) {
	cfg := CloneConfig{
		Stages: []StageConfig{
			{Name: "indexes", MaxPasses: 3},
			{Name: "data", Skip: true},
		},
	}

	override := cfg.StageOverride("indexes")
	require.NotNil(t, override)
	assert.Equal(t, 3, override.MaxPasses)

	assert.Nil(t, cfg.StageOverride("tables"))
}
