package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planfiles/fingerd/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "127.0.0.1", cfg.Listen.Host)
	assert.Equal(t, 7979, cfg.Listen.Port)
	assert.Equal(t, config.Duration(5*time.Minute), cfg.Cache.TTL)
	assert.Equal(t, config.Duration(30*time.Second), cfg.Server.ReadTimeout)
	assert.Equal(t, 1024, cfg.Server.MaxRequestBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:7979", cfg.Addr())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen:
  host: 0.0.0.0
  port: 1079
plan_dir: /srv/plans
cache:
  ttl: 30s
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Listen.Host)
	assert.Equal(t, 1079, cfg.Listen.Port)
	assert.Equal(t, "/srv/plans", cfg.PlanDir)
	assert.Equal(t, config.Duration(30*time.Second), cfg.Cache.TTL)
	// Unset fields keep their defaults.
	assert.Equal(t, 1024, cfg.Server.MaxRequestBytes)
}

func TestLoadProbesDefaultPath(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, os.Chdir(orig)) })

	t.Run("absent default file falls back to defaults", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.DefaultPort, cfg.Listen.Port)
		assert.Empty(t, cfg.PlanDir)
	})

	t.Run("present default file is loaded", func(t *testing.T) {
		require.NoError(t, os.WriteFile(config.DefaultConfigFile, []byte(`
plan_dir: /srv/plans
listen:
  port: 1079
`), 0o644))

		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, "/srv/plans", cfg.PlanDir)
		assert.Equal(t, 1079, cfg.Listen.Port)
	})
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvPlanDir, "/env/plans")
	t.Setenv(config.EnvPort, "1079")
	t.Setenv(config.EnvCacheTTL, "90")
	t.Setenv(config.EnvLogLevel, "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/plans", cfg.PlanDir)
	assert.Equal(t, 1079, cfg.Listen.Port)
	assert.Equal(t, config.Duration(90*time.Second), cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvIgnoresGarbage(t *testing.T) {
	t.Setenv(config.EnvPort, "not-a-port")
	t.Setenv(config.EnvCacheTTL, "sideways")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Listen.Port)
	assert.Equal(t, config.Duration(config.DefaultCacheTTL), cfg.Cache.TTL)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "300", want: 300 * time.Second},
		{in: "0", want: 0},
		{in: "5m", want: 5 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "-1", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.ParseTTL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.PlanDir = "/srv/plans"
	require.NoError(t, cfg.Validate())

	t.Run("missing plan dir", func(t *testing.T) {
		c := config.Default()
		assert.Error(t, c.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		c := config.Default()
		c.PlanDir = "/srv/plans"
		c.Listen.Port = 0
		assert.ErrorIs(t, c.Validate(), config.ErrInvalidPort)
	})

	t.Run("bad request limit", func(t *testing.T) {
		c := config.Default()
		c.PlanDir = "/srv/plans"
		c.Server.MaxRequestBytes = 0
		assert.Error(t, c.Validate())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerd.yaml")
	cfg := config.Default()
	cfg.PlanDir = "/srv/plans"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
