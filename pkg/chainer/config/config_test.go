package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, kb.DefaultMaxDerivations, cfg.Engine.MaxDerivations)
	assert.True(t, cfg.Engine.StrictRules)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "chainer.yaml", `
engine:
  max_derivations: 500
  strict_rules: false
log:
  level: debug
  development: true
store:
  path: /tmp/kb.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Engine.MaxDerivations)
	assert.False(t, cfg.Engine.StrictRules)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "/tmp/kb.db", cfg.Store.Path)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "chainer.yaml", "log:\n  level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, kb.DefaultMaxDerivations, cfg.Engine.MaxDerivations)
	assert.True(t, cfg.Engine.StrictRules)
	assert.Equal(t, "chainer.db", cfg.Store.Path)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/chainer.yaml")
	assert.Error(t, err)

	path := writeFile(t, "bad.yaml", "engine: [unclosed")
	_, err = Load(path)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	path = writeFile(t, "zero.yaml", "engine:\n  max_derivations: 0\n")
	_, err = Load(path)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	path = writeFile(t, "level.yaml", "log:\n  level: loud\n")
	_, err = Load(path)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestOverlayEnvironment(t *testing.T) {
	t.Setenv("CHAINER_ENGINE_MAX_DERIVATIONS", "42")
	t.Setenv("CHAINER_LOG_LEVEL", "error")

	base := Default()
	cfg, err := Overlay(viper.New(), base)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Engine.MaxDerivations)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Engine.StrictRules)

	assert.Equal(t, kb.DefaultMaxDerivations, base.Engine.MaxDerivations, "input untouched")
}

func TestOverlayFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("CHAINER_ENGINE_MAX_DERIVATIONS", "42")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-derivations", 0, "")
	require.NoError(t, flags.Parse([]string{"--max-derivations=7"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag(KeyMaxDerivations, flags.Lookup("max-derivations")))

	cfg, err := Overlay(v, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.MaxDerivations)
}

func TestOverlayRejectsInvalid(t *testing.T) {
	t.Setenv("CHAINER_ENGINE_MAX_DERIVATIONS", "-1")

	_, err := Overlay(viper.New(), Default())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}
