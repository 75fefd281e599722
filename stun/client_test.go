package stun_test

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/aethiopicuschan/liveless/stun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startMockSTUNServer answers the first datagram it receives with whatever
// handler returns. A nil reply means no answer.
func startMockSTUNServer(
	t *testing.T,
	handler func(req []byte) []byte,
) (addr netip.AddrPort, closeFn func()) {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{
		IP:   net.IPv4(127, 0, 0, 1),
		Port: 0,
	})
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		buf := make([]byte, 1500)
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		resp := handler(buf[:n])
		if resp == nil {
			return
		}

		_, _ = conn.WriteToUDP(resp, raddr)
	}()

	return conn.LocalAddr().(*net.UDPAddr).AddrPort(), func() {
		_ = conn.Close()
		<-done
	}
}

func newTestClient(timeout time.Duration) *stun.Client {
	client := stun.NewClient()
	client.Timeout = timeout
	return client
}

func TestClient_Discover_Success(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func(req []byte) []byte {
		assert.Equal(t, stun.BindingRequest(), req)
		return response(stun.TypeBindingResponse, mappedAttr([4]byte{203, 0, 113, 7}, 40000)...)
	})
	defer closeFn()

	client := newTestClient(time.Second)

	got, err := client.Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got.IP.String())
	assert.Equal(t, uint16(40000), got.Port)
}

func TestClient_Discover_TrailingGarbage(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func([]byte) []byte {
		attrs := append(mappedAttr([4]byte{203, 0, 113, 7}, 40000), 0x80, 0x22, 0x00)
		return response(stun.TypeBindingResponse, attrs...)
	})
	defer closeFn()

	got, err := newTestClient(time.Second).Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got.IP.String())
}

func TestClient_Discover_UnexpectedType(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func([]byte) []byte {
		return response(stun.TypeBindingError, mappedAttr([4]byte{203, 0, 113, 7}, 1)...)
	})
	defer closeFn()

	client := newTestClient(time.Second)

	_, err := client.Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

	var derr *stun.DiscoveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, stun.StageParse, derr.Stage)
	assert.ErrorIs(t, err, stun.ErrNotBindingResponse)
	assert.True(t, stun.NothingLearned(err))
}

func TestClient_Discover_Timeout(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func([]byte) []byte {
		return nil
	})
	defer closeFn()

	client := newTestClient(200 * time.Millisecond)

	start := time.Now()
	_, err := client.Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

	assert.ErrorIs(t, err, stun.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	var derr *stun.DiscoveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, stun.StageReceive, derr.Stage)
}

func TestClient_Discover_ContextDeadlineWins(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func([]byte) []byte {
		return nil
	})
	defer closeFn()

	client := newTestClient(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Discover(ctx, serverAddr.Addr().String(), serverAddr.Port())

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_Discover_ContextCanceled(t *testing.T) {
	t.Parallel()

	serverAddr, closeFn := startMockSTUNServer(t, func([]byte) []byte {
		return nil
	})
	defer closeFn()

	client := newTestClient(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Discover(ctx, serverAddr.Addr().String(), serverAddr.Port())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Discover_VerifyTransaction(t *testing.T) {
	t.Parallel()

	forged := func([]byte) []byte {
		pkt := response(stun.TypeBindingResponse, mappedAttr([4]byte{1, 2, 3, 4}, 1111)...)
		pkt[4] ^= 0xFF
		return pkt
	}

	t.Run("strict ignores foreign transaction", func(t *testing.T) {
		t.Parallel()

		serverAddr, closeFn := startMockSTUNServer(t, forged)
		defer closeFn()

		client := newTestClient(300 * time.Millisecond)

		_, err := client.Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

		assert.ErrorIs(t, err, stun.ErrTimeout)
	})

	t.Run("lenient accepts it", func(t *testing.T) {
		t.Parallel()

		serverAddr, closeFn := startMockSTUNServer(t, forged)
		defer closeFn()

		client := newTestClient(time.Second)
		client.VerifyTransaction = false

		got, err := client.Discover(context.Background(), serverAddr.Addr().String(), serverAddr.Port())

		require.NoError(t, err)
		assert.Equal(t, "1.2.3.4", got.IP.String())
	})
}

func TestClient_Discover_ResolveFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(time.Second)

	_, err := client.Discover(context.Background(), "::1", 3478)

	var derr *stun.DiscoveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, stun.StageResolve, derr.Stage)
	assert.ErrorIs(t, err, stun.ErrNoIPv4)
}

func TestClient_Discover_BindFailure(t *testing.T) {
	t.Parallel()

	taken, err := net.ListenUDP("udp4", &net.UDPAddr{})
	require.NoError(t, err)
	defer taken.Close()

	client := newTestClient(time.Second)
	client.LocalPort = taken.LocalAddr().(*net.UDPAddr).Port

	_, err = client.Discover(context.Background(), "127.0.0.1", 3478)

	var derr *stun.DiscoveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, stun.StageBind, derr.Stage)
}
