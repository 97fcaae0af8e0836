package hexutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b := [16]byte{0x01, 0xAB, 0xFF}
	s := Encode(b[:])
	require.Len(t, s, 32)
	require.Equal(t, "01abff", s[:6])

	got, err := Decode16(s)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestDecodeCaseInsensitive(t *testing.T) {
	lower := "0123456789abcdef"
	upper := "0123456789ABCDEF"

	gotLower, err := Decode8(lower)
	require.NoError(t, err)
	gotUpper, err := Decode8(upper)
	require.NoError(t, err)
	require.Equal(t, gotLower, gotUpper)
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := Decode16("aabb")
	require.Error(t, err)
}

func TestDecodeAnyAcceptsVariableLength(t *testing.T) {
	got, err := DecodeAny("0014aabbccddeeff")
	require.NoError(t, err)
	require.Len(t, got, 8)
}

func TestDecodeAnyRejectsEmpty(t *testing.T) {
	_, err := DecodeAny("")
	require.Error(t, err)
}
