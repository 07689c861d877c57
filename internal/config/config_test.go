package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes_YAMLOverridesDefaults(t *testing.T) {
	data := []byte(`
management:
  addr: 0.0.0.0:9000
  readTimeout: 2s
report:
  interval: 30s
  reset: false
  serializer: msgpack
redis:
  addr: localhost:6379
log:
  level: debug
`)

	cfg, err := LoadBytes(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Management.Addr)
	assert.Equal(t, 2*time.Second, cfg.Management.ReadTimeout)
	assert.Equal(t, Default().Management.WriteTimeout, cfg.Management.WriteTimeout)
	assert.True(t, cfg.Management.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Report.Interval)
	assert.False(t, cfg.Report.Reset)
	assert.Equal(t, "msgpack", cfg.Report.Serializer)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, Default().Redis.Channel, cfg.Redis.Channel)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadBytes_JSON(t *testing.T) {
	cfg, err := LoadBytes([]byte(`{"otel":{"enabled":true},"prometheus":{"enabled":true}}`), FormatJSON)
	require.NoError(t, err)

	assert.True(t, cfg.OTel.Enabled)
	assert.True(t, cfg.Prometheus.Enabled)
	assert.Equal(t, Default().Report, cfg.Report)
}

func TestLoadBytes_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		want   error
	}{
		{"unknown format", `a: 1`, Format("toml"), ErrUnsupportedFormat},
		{"zero interval", "report:\n  interval: 0s\n", FormatYAML, ErrInvalidConfig},
		{"unknown serializer", "report:\n  serializer: xml\n", FormatYAML, ErrInvalidConfig},
		{"empty channel", "redis:\n  addr: localhost:6379\n  channel: \"\"\n", FormatYAML, ErrInvalidConfig},
		{"missing addr", "management:\n  addr: \" \"\n", FormatYAML, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadBytes([]byte("report: [unclosed"), FormatYAML)
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "tally.yml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  workers: 4\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Report.Workers)

	_, err = Load(filepath.Join(dir, "tally.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
