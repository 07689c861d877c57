// Package config loads the tally daemon configuration from YAML or JSON.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/hyp3rd/tally/internal/constants"
	"github.com/hyp3rd/tally/internal/libs/serializer"
)

// Format is a configuration file format.
type Format string

const (
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatJSON is JSON.
	FormatJSON Format = "json"
)

var (
	// ErrUnsupportedFormat is returned for a file extension or format that is neither YAML nor JSON.
	ErrUnsupportedFormat = ewrap.New("unsupported config format")
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = ewrap.New("invalid config")
)

// Management configures the management HTTP server.
type Management struct {
	Enabled      bool          `koanf:"enabled"`
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"readTimeout"`
	WriteTimeout time.Duration `koanf:"writeTimeout"`
	Token        string        `koanf:"token"`
}

// Report configures the periodic reporter.
type Report struct {
	Interval   time.Duration `koanf:"interval"`
	Reset      bool          `koanf:"reset"`
	Serializer string        `koanf:"serializer"`
	Workers    int           `koanf:"workers"`
}

// Redis configures the Redis publish sink. An empty address disables it.
type Redis struct {
	Addr     string `koanf:"addr"`
	Channel  string `koanf:"channel"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// OTel toggles the OpenTelemetry exporter and middlewares.
type OTel struct {
	Enabled bool `koanf:"enabled"`
}

// Prometheus toggles the /metrics route on the management server.
type Prometheus struct {
	Enabled bool `koanf:"enabled"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// Config is the daemon configuration.
type Config struct {
	Management Management `koanf:"management"`
	Report     Report     `koanf:"report"`
	Redis      Redis      `koanf:"redis"`
	OTel       OTel       `koanf:"otel"`
	Prometheus Prometheus `koanf:"prometheus"`
	Log        Log        `koanf:"log"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() Config {
	return Config{
		Management: Management{
			Enabled:      true,
			Addr:         constants.DefaultManagementAddr,
			ReadTimeout:  constants.DefaultReadTimeout,
			WriteTimeout: constants.DefaultWriteTimeout,
		},
		Report: Report{
			Interval:   constants.DefaultReportInterval,
			Reset:      true,
			Serializer: constants.DefaultSerializer,
			Workers:    constants.DefaultReportWorkers,
		},
		Redis: Redis{Channel: constants.RedisChannel},
		Log:   Log{Level: constants.DefaultLogLevel},
	}
}

// Load reads path, choosing the parser from its extension.
func Load(path string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Config{}, ewrap.Wrap(err, "read config")
	}

	return LoadBytes(data, format)
}

// LoadBytes parses data over the defaults and validates the result.
func LoadBytes(data []byte, format Format) (Config, error) {
	var parser koanf.Parser

	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, ErrUnsupportedFormat
	}

	k := koanf.New(".")

	err := k.Load(rawbytes.Provider(data), parser)
	if err != nil {
		return Config{}, ewrap.Wrap(err, "parse config")
	}

	cfg := Default()

	err = k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"})
	if err != nil {
		return Config{}, ewrap.Wrap(err, "decode config")
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	if c.Report.Interval <= 0 {
		return ewrap.Wrapf(ErrInvalidConfig, "report.interval must be positive, got %s", c.Report.Interval)
	}

	if c.Report.Workers <= 0 {
		return ewrap.Wrapf(ErrInvalidConfig, "report.workers must be positive, got %d", c.Report.Workers)
	}

	_, err := serializer.New(c.Report.Serializer)
	if err != nil {
		return ewrap.Wrapf(ErrInvalidConfig, "report.serializer %q", c.Report.Serializer)
	}

	if c.Management.Enabled && strings.TrimSpace(c.Management.Addr) == "" {
		return ewrap.Wrapf(ErrInvalidConfig, "management.addr is required")
	}

	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return ewrap.Wrapf(ErrInvalidConfig, "redis.channel is required with redis.addr")
	}

	return nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", ewrap.Wrapf(ErrUnsupportedFormat, "extension of %q", path)
	}
}
