package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/aethiopicuschan/liveless/liveless"
	"github.com/aethiopicuschan/liveless/stun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liveless.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestDiscoverCmd(t *testing.T) {
	t.Parallel()

	srv, err := stun.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	srv.ReadTimeout = 50 * time.Millisecond
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := srv.Conn.LocalAddr().(*net.UDPAddr)
	out, err := run(t, "discover", net.JoinHostPort("127.0.0.1", strconv.Itoa(addr.Port)), "--timeout", "2s")
	require.NoError(t, err)

	assert.Contains(t, out, "Public mapped address:")
	assert.Contains(t, out, "IP  : 127.0.0.1")
}

func TestDiscoverCmd_NoServer(t *testing.T) {
	t.Parallel()

	_, err := run(t, "discover")
	assert.EqualError(t, err, "no STUN server given")
}

func TestActivateCmd(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
enable_liveless: true
emulator: true
stun_server: ""
redirect_ip: 203.0.113.9
external_ip: 198.51.100.4
log_level: error
`)

	out, err := run(t, "activate", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Activated: true")
	assert.Contains(t, out, "Redirect : 203.0.113.9:9103")
	assert.Contains(t, out, "External : 198.51.100.4")
	assert.Contains(t, out, "hook   : qos_lookup")
}

func TestActivateCmd_Disabled(t *testing.T) {
	t.Parallel()

	out, err := run(t, "activate", "--log-level", "error")

	assert.ErrorIs(t, err, liveless.ErrDisabled)
	assert.Contains(t, out, "Activated: false")
}

func TestActivateCmd_BadLogLevel(t *testing.T) {
	t.Parallel()

	_, err := run(t, "activate", "--log-level", "loud")
	assert.Error(t, err)
}

func TestSplitHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{in: "stun.example.net", wantHost: "stun.example.net", wantPort: 3478},
		{in: "stun.example.net:3479", wantHost: "stun.example.net", wantPort: 3479},
		{in: "192.0.2.1", wantHost: "192.0.2.1", wantPort: 3478},
		{in: "192.0.2.1:99999", wantErr: true},
	}

	for _, tt := range tests {
		host, port, err := splitHostPort(tt.in, 3478)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantPort, port, tt.in)
	}
}

func TestActivateCmd_ProbeHostHelp(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	cmd, _, err := root.Find([]string{"activate"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("probe-host")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "reachability heuristic")
	assert.Contains(t, cmd.Long, "cannot tell a signed-in profile")
}

func TestActivateCmd_ProbeHostUnresolvable(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
enable_liveless: true
redirect_ip: 203.0.113.9
log_level: error
`)

	out, err := run(t, "activate", "--config", path, "--probe-host", "service.invalid")
	require.NoError(t, err)
	assert.Contains(t, out, "Activated: true")
}
