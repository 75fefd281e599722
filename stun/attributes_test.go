package stun_test

import (
	"net/netip"
	"testing"

	"github.com/aethiopicuschan/liveless/stun"
	"github.com/stretchr/testify/assert"
)

func TestDecodeMappedAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   []byte
		want    stun.MappedAddress
		ok      bool
		wantErr error
	}{
		{
			name:  "ipv4",
			value: []byte{0x00, 0x01, 0xD4, 0x31, 192, 0, 2, 1},
			want:  stun.MappedAddress{IP: netip.MustParseAddr("192.0.2.1"), Port: 54321},
			ok:    true,
		},
		{
			name:  "ipv6 is not learned",
			value: append([]byte{0x00, 0x02, 0x00, 0x01}, make([]byte, 16)...),
		},
		{
			name:    "too short",
			value:   []byte{0x00},
			wantErr: stun.ErrTruncated,
		},
		{
			name:    "ipv4 without port",
			value:   []byte{0x00, 0x01, 0x00},
			wantErr: stun.ErrTruncated,
		},
		{
			name:    "ipv4 too short",
			value:   []byte{0x00, 0x01, 0x00, 0x01, 1, 2, 3},
			wantErr: stun.ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok, err := stun.DecodeMappedAddress(stun.Attribute{Type: stun.AttrMappedAddress, Value: tt.value})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildMappedAddressAttr_RoundTrip(t *testing.T) {
	t.Parallel()

	ap := netip.MustParseAddrPort("203.0.113.9:3478")
	attr := stun.TestBuildMappedAddressAttr(ap)

	got, ok, err := stun.DecodeMappedAddress(attr)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ap.Addr(), got.IP)
	assert.Equal(t, ap.Port(), got.Port)
	assert.Equal(t, "203.0.113.9:3478", got.String())
}

func TestBuildMappedAddressAttr_UnmapsIPv4(t *testing.T) {
	t.Parallel()

	ap := netip.AddrPortFrom(netip.MustParseAddr("::ffff:10.0.0.2"), 7)
	attr := stun.TestBuildMappedAddressAttr(ap)

	assert.Len(t, attr.Value, 8)
	assert.Equal(t, byte(0x01), attr.Value[1])
}
