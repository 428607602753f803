package crypto

import (
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/nacl/box"

	"github.com/stretchr/testify/require"
)

func TestSealOpenEnvelopeRoundTrip(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	plaintext := []byte(`{"hello":"world"}`)
	env, err := SealEnvelope(*pub, plaintext)
	require.NoError(t, err)
	require.Equal(t, "nacl-box", env.Algorithm)

	got, err := OpenEnvelope(*priv, *env)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestOpenEnvelopeRejectsWrongKey(t *testing.T) {
	pub, _, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, wrongPriv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	env, err := SealEnvelope(*pub, []byte("secret"))
	require.NoError(t, err)

	_, err = OpenEnvelope(*wrongPriv, *env)
	require.Error(t, err)
}

func TestOpenEnvelopeRejectsUnsupportedAlgorithm(t *testing.T) {
	env := Envelope{Algorithm: "rot13"}
	var key [32]byte
	_, err := OpenEnvelope(key, env)
	require.Error(t, err)
}

func TestSealJSONRoundTrip(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	type payload struct {
		Count int `json:"count"`
	}
	env, err := SealJSON(*pub, payload{Count: 7})
	require.NoError(t, err)

	plaintext, err := OpenEnvelope(*priv, *env)
	require.NoError(t, err)
	require.JSONEq(t, `{"count":7}`, string(plaintext))
}
