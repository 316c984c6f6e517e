// Package config loads tellascope settings from a file and the environment.
//
// Keys are grouped in the sections transport, link, logging and metrics.
// Every key can be overridden by an environment variable with the
// TELLASCOPE_ prefix and dots replaced by underscores, for example
// TELLASCOPE_TRANSPORT_PORT or TELLASCOPE_LINK_DELAY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
	"github.com/Rodot-/tellascope/transport"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "TELLASCOPE"

type TransportConfig struct {
	Kind        string        `mapstructure:"kind"`
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baudRate"`
	DataBits    int           `mapstructure:"dataBits"`
	StopBits    int           `mapstructure:"stopBits"`
	Parity      string        `mapstructure:"parity"`
	PollTimeout time.Duration `mapstructure:"pollTimeout"`
}

type LinkConfig struct {
	Delay           time.Duration `mapstructure:"delay"`
	ExchangeTimeout time.Duration `mapstructure:"exchangeTimeout"`
	ReadChunk       int           `mapstructure:"readChunk"`
	NAKLogInterval  time.Duration `mapstructure:"nakLogInterval"`
}

type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	// Backend is "slog" or "zap".
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// Config is the root of the settings tree.
type Config struct {
	Transport TransportConfig `mapstructure:"transport"`
	Link      LinkConfig      `mapstructure:"link"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Load reads the file at path, or tellascope.{yaml,toml,json} from the
// working directory and ./configs when path is empty. A missing default file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("tellascope")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport.kind", transport.KindSerial)
	v.SetDefault("transport.port", "")
	v.SetDefault("transport.baudRate", transport.DefaultBaudRate)
	v.SetDefault("transport.dataBits", transport.DefaultDataBits)
	v.SetDefault("transport.stopBits", transport.DefaultStopBits)
	v.SetDefault("transport.parity", transport.DefaultParity)
	v.SetDefault("transport.pollTimeout", transport.DefaultPollTimeout)

	v.SetDefault("link.delay", lx200.DefaultDelay)
	v.SetDefault("link.exchangeTimeout", lx200.DefaultExchangeTimeout)
	v.SetDefault("link.readChunk", lx200.DefaultReadChunk)
	v.SetDefault("link.nakLogInterval", lx200.DefaultNAKLogInterval)

	v.SetDefault("logging.backend", "slog")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9110")
	v.SetDefault("metrics.path", "/metrics")
}

// LinkOptions converts the link section into lx200 options. Range checks
// happen in lx200.NewLinkConfig.
func (c *Config) LinkOptions(l logger.Logger) []lx200.LinkOption {
	opts := []lx200.LinkOption{
		lx200.WithDelay(c.Link.Delay),
		lx200.WithExchangeTimeout(c.Link.ExchangeTimeout),
		lx200.WithReadChunk(c.Link.ReadChunk),
		lx200.WithNAKLogInterval(c.Link.NAKLogInterval),
	}
	if l != nil {
		opts = append(opts, lx200.WithLogger(l))
	}

	return opts
}

// TransportConfig converts the transport section. The loopback responder is
// not configurable from files and must be set by the caller.
func (c *Config) TransportConfig(l logger.Logger) transport.Config {
	return transport.Config{
		Kind:        c.Transport.Kind,
		Port:        c.Transport.Port,
		BaudRate:    c.Transport.BaudRate,
		DataBits:    c.Transport.DataBits,
		StopBits:    c.Transport.StopBits,
		Parity:      c.Transport.Parity,
		PollTimeout: c.Transport.PollTimeout,
		Logger:      l,
	}
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(c.Logging.Backend) {
	case "", "slog":
		if c.Logging.File.Filename != "" {
			return nil, errors.New("config: log file output requires the zap backend")
		}
		return logger.NewSlogWithOptions(logger.SlogOptions{
			Format: c.Logging.Format,
			Level:  level,
		}), nil
	case "zap":
		return logger.NewZap(logger.ZapOptions{
			Level:  level,
			Format: c.Logging.Format,
			File: logger.RotateOptions{
				Filename:   c.Logging.File.Filename,
				MaxSizeMB:  c.Logging.File.MaxSizeMB,
				MaxBackups: c.Logging.File.MaxBackups,
				MaxAgeDays: c.Logging.File.MaxAgeDays,
				Compress:   c.Logging.File.Compress,
			},
		}), nil
	default:
		return nil, fmt.Errorf("config: unknown logging backend %q", c.Logging.Backend)
	}
}
