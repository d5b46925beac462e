package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Playback: PlaybackConfig{
			InitialVolume: intPtr(70),
			Repeat:        "none",
			TimeUpdateMs:  250,
		},
		Sink: SinkConfig{
			Type:            "null",
			SampleRate:      44100,
			ResampleQuality: 4,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing server addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
			errMsg:  "Addr",
		},
		{
			name:    "volume above range",
			mutate:  func(c *Config) { c.Playback.InitialVolume = intPtr(101) },
			wantErr: true,
			errMsg:  "InitialVolume",
		},
		{
			name:    "volume zero is allowed",
			mutate:  func(c *Config) { c.Playback.InitialVolume = intPtr(0) },
			wantErr: false,
		},
		{
			name:    "unknown repeat mode",
			mutate:  func(c *Config) { c.Playback.Repeat = "twice" },
			wantErr: true,
			errMsg:  "Repeat",
		},
		{
			name:    "unknown sink type",
			mutate:  func(c *Config) { c.Sink.Type = "pulse" },
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name:    "time update too frequent",
			mutate:  func(c *Config) { c.Playback.TimeUpdateMs = 10 },
			wantErr: true,
			errMsg:  "TimeUpdateMs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
upload:
  preload:
    - /music/opening
  filters:
    size_limit_filter:
      enabled: true
      settings:
        max_mb: 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 70, cfg.Playback.Volume())
	assert.Equal(t, "none", cfg.Playback.Repeat)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.TimeUpdateInterval())
	assert.Equal(t, "speaker", cfg.Sink.Type)
	assert.Equal(t, 44100, cfg.Sink.SampleRate)
	assert.Equal(t, []string{"/music/opening"}, cfg.Upload.Preload)
	assert.True(t, cfg.IsFilterEnabled("size_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("duplicate_source_filter"))
	assert.Equal(t, 50, cfg.FilterSettings("size_limit_filter")["max_mb"])
	assert.Nil(t, cfg.FilterSettings("missing"))
}

func TestLoad_ExplicitZeroVolume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("playback:\n  initial_volume: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Playback.Volume())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  control_token: from-file\n"), 0o644))
	t.Setenv("TUNEDECK_CONTROL_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.ControlToken)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("playback:\n  repeat: sometimes\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
