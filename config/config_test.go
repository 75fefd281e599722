package config_test

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aethiopicuschan/liveless/config"
	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.False(t, cfg.EnableGoCentral)
	assert.False(t, cfg.EnableLiveless)
	assert.Equal(t, uint16(config.DefaultSTUNPort), cfg.STUNPort)
	assert.Equal(t, 4*time.Second, cfg.STUNTimeout)
	assert.True(t, cfg.STUNVerifyTransaction)
	assert.False(t, cfg.DiscoveryEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "liveless.yaml")
	data := `
enable_liveless: true
stun_server: stun.example.net
stun_port: 3479
stun_timeout: 2s
stun_verify_transaction: false
external_ip: 198.51.100.4
redirect_ip: 203.0.113.9
emulator: true
status_addr: 127.0.0.1:9100
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.EnableLiveless)
	assert.False(t, cfg.EnableGoCentral)
	assert.Equal(t, "stun.example.net", cfg.STUNServer)
	assert.Equal(t, uint16(3479), cfg.STUNPort)
	assert.Equal(t, 2*time.Second, cfg.STUNTimeout)
	assert.False(t, cfg.STUNVerifyTransaction)
	assert.True(t, cfg.Emulator)
	assert.Equal(t, "127.0.0.1:9100", cfg.StatusAddr)
	assert.True(t, cfg.DiscoveryEnabled())
	assert.Equal(t, netip.MustParseAddr("198.51.100.4"), cfg.External())
	assert.Equal(t, netip.MustParseAddr("203.0.113.9"), cfg.Redirect())

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logging.LogLevelDebug, lvl)
	assert.Equal(t, logging.LogLevelDebug, cfg.LoggerFactory().DefaultLogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "external ipv6", data: "external_ip: \"2001:db8::1\"", want: config.ErrInvalidIP},
		{name: "redirect garbage", data: "redirect_ip: nowhere", want: config.ErrInvalidIP},
		{name: "local port", data: "stun_local_port: 70000", want: config.ErrInvalidPort},
		{name: "log level", data: "log_level: loud", want: config.ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := config.Parse([]byte("enable_liveless: ["))
	assert.Error(t, err)
}

func TestDiscoveryEnabled(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.STUNServer = "stun.example.net"
	assert.True(t, cfg.DiscoveryEnabled())

	cfg.STUNPort = 0
	assert.False(t, cfg.DiscoveryEnabled())
}

func TestUnsetAddresses(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.False(t, cfg.External().IsValid())
	assert.False(t, cfg.Redirect().IsValid())
}
