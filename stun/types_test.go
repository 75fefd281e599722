package stun_test

import (
	"testing"

	"github.com/aethiopicuschan/liveless/stun"
	"github.com/stretchr/testify/assert"
)

func TestEndianHelpers(t *testing.T) {
	t.Parallel()

	buf16 := make([]byte, 2)
	stun.TestPutU16(buf16, 0xABCD)

	assert.Equal(t, []byte{0xAB, 0xCD}, buf16)
	assert.Equal(t, uint16(0xABCD), stun.TestReadU16(buf16))
}

func TestPadded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 4},
		{3, 4},
		{4, 4},
		{5, 8},
		{8, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stun.TestPadded(tt.in), "padded(%d)", tt.in)
	}
}

func TestConstants_Sanity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0x0001), stun.TypeBindingRequest)
	assert.Equal(t, uint16(0x0101), stun.TypeBindingResponse)
	assert.Equal(t, uint16(0x0111), stun.TypeBindingError)
	assert.Equal(t, uint16(0x0001), stun.AttrMappedAddress)
	assert.Equal(t, "RB3ESTUNCLIENT!!", string(stun.Signature[:]))
}
