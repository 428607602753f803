package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64URLRoundTrip(t *testing.T) {
	data := []byte{0xff, 0x00, 0xab, 0x12, 0x34}
	encoded := EncodeBase64URL(data)
	require.NotContains(t, encoded, "=")

	decoded, err := DecodeBase64URL(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDecodeBase64URLToleratesPadding(t *testing.T) {
	decoded, err := DecodeBase64URL("aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), decoded)
}

func TestEncodeStdB64RoundTrip(t *testing.T) {
	data := []byte("some ciphertext bytes")
	encoded := EncodeStdB64(data)
	decoded, err := decodeStdB64(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestBase58BTCRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0xff, 0xab}
	encoded := EncodeBase58BTC(data)
	decoded, err := DecodeBase58BTC(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDecodeBase58BTCRejectsInvalidCharacters(t *testing.T) {
	_, err := DecodeBase58BTC("0OIl-not-base58")
	require.Error(t, err)
}
