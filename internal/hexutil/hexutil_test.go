package hexutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeHexOddLength(t *testing.T) {
	buf, err := DecodeHex("nonce", "0x1")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, buf)
}

func TestDecodeHexEvenLength(t *testing.T) {
	buf, err := DecodeHex("nonce", "0x0102")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, buf)
}

func TestDecodeHexInvalid(t *testing.T) {
	_, err := DecodeHex("nonce", "0xzz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nonce")
}

func TestQtyToUint64(t *testing.T) {
	cases := map[string]uint64{
		"0x0":        0,
		"0x1":        1,
		"0xff":       255,
		"0x3b9aca00": 1_000_000_000,
		"":           0,
	}
	for in, want := range cases {
		got, err := QtyToUint64(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestQtyToUint64Invalid(t *testing.T) {
	_, err := QtyToUint64("0xzz")
	require.Error(t, err)
}
