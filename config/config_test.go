package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
	"github.com/Rodot-/tellascope/transport"
)

const sampleYAML = `
transport:
  kind: serial
  port: /dev/ttyUSB0
  baudRate: 9600
  parity: none
link:
  delay: 100ms
  exchangeTimeout: 3s
  readChunk: 16
logging:
  backend: zap
  level: debug
  format: console
metrics:
  enable: true
  addr: ":9200"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "tellascope.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Transport.Port)
	assert.Equal(t, 9600, cfg.Transport.BaudRate)
	assert.Equal(t, transport.DefaultDataBits, cfg.Transport.DataBits)
	assert.Equal(t, transport.DefaultPollTimeout, cfg.Transport.PollTimeout)

	assert.Equal(t, 100*time.Millisecond, cfg.Link.Delay)
	assert.Equal(t, 3*time.Second, cfg.Link.ExchangeTimeout)
	assert.Equal(t, 16, cfg.Link.ReadChunk)
	assert.Equal(t, lx200.DefaultNAKLogInterval, cfg.Link.NAKLogInterval)

	assert.Equal(t, "zap", cfg.Logging.Backend)
	assert.True(t, cfg.Metrics.Enable)
	assert.Equal(t, ":9200", cfg.Metrics.Addr)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "tellascope.toml", "[transport]\nkind = \"loopback\"\n\n[link]\ndelay = \"20ms\"\n"))
	require.NoError(t, err)

	assert.Equal(t, transport.KindLoopback, cfg.Transport.Kind)
	assert.Equal(t, 20*time.Millisecond, cfg.Link.Delay)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TELLASCOPE_TRANSPORT_PORT", "COM7")
	t.Setenv("TELLASCOPE_LINK_DELAY", "50ms")

	cfg, err := Load(writeFile(t, "tellascope.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "COM7", cfg.Transport.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Link.Delay)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, transport.KindSerial, cfg.Transport.Kind)
	assert.Equal(t, lx200.DefaultDelay, cfg.Link.Delay)
	assert.Equal(t, lx200.DefaultExchangeTimeout, cfg.Link.ExchangeTimeout)
	assert.Equal(t, "slog", cfg.Logging.Backend)
	assert.False(t, cfg.Metrics.Enable)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConfig_LinkOptions(t *testing.T) {
	cfg, err := Load(writeFile(t, "tellascope.yaml", sampleYAML))
	require.NoError(t, err)

	linkCfg, err := lx200.NewLinkConfig(cfg.LinkOptions(logger.NewMockLogger())...)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, linkCfg.Delay())
	assert.Equal(t, 3*time.Second, linkCfg.ExchangeTimeout())
	assert.Equal(t, 16, linkCfg.ReadChunk())

	cfg.Link.Delay = 0
	_, err = lx200.NewLinkConfig(cfg.LinkOptions(nil)...)
	require.Error(t, err)
}

func TestConfig_TransportConfig(t *testing.T) {
	cfg, err := Load(writeFile(t, "tellascope.yaml", sampleYAML))
	require.NoError(t, err)

	tc := cfg.TransportConfig(nil)
	assert.Equal(t, "/dev/ttyUSB0", tc.Port)
	require.NoError(t, tc.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	cfg, err := Load(writeFile(t, "tellascope.yaml", sampleYAML))
	require.NoError(t, err)

	cfg.Logging.File.Filename = filepath.Join(t.TempDir(), "tellascope.log")
	l, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.IsType(t, &logger.ZapLogger{}, l)
	assert.Equal(t, logger.DebugLevel, l.Level())

	cfg.Logging.Backend = "slog"
	_, err = cfg.NewLogger()
	require.Error(t, err, "slog cannot write log files")

	cfg.Logging.File.Filename = ""
	l, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.IsType(t, &logger.SlogLogger{}, l)

	cfg.Logging.Level = "loud"
	_, err = cfg.NewLogger()
	require.Error(t, err)

	cfg.Logging.Level = "info"
	cfg.Logging.Backend = "syslog"
	_, err = cfg.NewLogger()
	require.Error(t, err)
}
