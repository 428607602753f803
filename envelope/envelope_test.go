package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"testing"

	"golang.org/x/crypto/nacl/box"

	"github.com/stretchr/testify/require"

	lcrypto "github.com/lcore-labs/lcore-core/crypto"
)

func TestDecryptInboundPassesThroughPlaintext(t *testing.T) {
	e := New(Keys{}, ModeRaw, nil)
	raw := []byte(`{"action":"ping"}`)
	got, err := e.DecryptInbound(raw)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestDecryptInboundDecryptsMatchingEnvelope(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	inner := []byte(`{"action":"ingest_attestation"}`)
	env, err := lcrypto.SealEnvelope(*pub, inner)
	require.NoError(t, err)
	wrapped := lcrypto.EncryptedPayload{Encrypted: true, Payload: *env}
	raw, err := json.Marshal(wrapped)
	require.NoError(t, err)

	e := New(Keys{InputPrivateKey: priv}, ModeRaw, nil)
	got, err := e.DecryptInbound(raw)
	require.NoError(t, err)
	require.Equal(t, inner, got)
}

func TestDecryptInboundRejectsWithoutConfiguredKey(t *testing.T) {
	pub, _, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	env, err := lcrypto.SealEnvelope(*pub, []byte(`{}`))
	require.NoError(t, err)
	wrapped := lcrypto.EncryptedPayload{Encrypted: true, Payload: *env}
	raw, err := json.Marshal(wrapped)
	require.NoError(t, err)

	e := New(Keys{}, ModeRaw, nil)
	_, err = e.DecryptInbound(raw)
	require.Error(t, err)
}

func TestCreateResponseRawModeNeverEncrypts(t *testing.T) {
	e := New(Keys{}, ModeRaw, nil)
	got, err := e.CreateResponse(map[string]int{"x": 1}, true)
	require.NoError(t, err)
	body, ok := got.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, false, body["encrypted"])
}

func TestCreateResponseEncryptedModeWrapsSensitive(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	e := New(Keys{OutputPublicKey: pub}, ModeEncrypted, nil)
	got, err := e.CreateResponse(map[string]int{"x": 1}, true)
	require.NoError(t, err)
	payload, ok := got.(lcrypto.EncryptedPayload)
	require.True(t, ok)
	require.True(t, payload.Encrypted)

	plaintext, err := lcrypto.OpenEnvelope(*priv, payload.Payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"x":1}`, string(plaintext))
}

func TestCreateResponseEncryptedModeLeavesNonSensitiveUnwrapped(t *testing.T) {
	pub, _, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	e := New(Keys{OutputPublicKey: pub}, ModeEncrypted, nil)
	got, err := e.CreateResponse(map[string]int{"x": 1}, false)
	require.NoError(t, err)
	body, ok := got.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, false, body["encrypted"])
}

func TestCreateResponseCustomModeDelegates(t *testing.T) {
	called := false
	custom := func(data interface{}, sensitive bool) (interface{}, error) {
		called = true
		return map[string]interface{}{"wrapped": data, "sensitive": sensitive}, nil
	}
	e := New(Keys{}, ModeCustom, custom)
	got, err := e.CreateResponse("payload", true)
	require.NoError(t, err)
	require.True(t, called)
	body := got.(map[string]interface{})
	require.Equal(t, true, body["sensitive"])
}

func TestParseKeyRoundTrip(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	key, err := ParseKey(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, key[:])
}

func TestParseKeyEmptyReturnsNil(t *testing.T) {
	key, err := ParseKey("")
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestParseKeyRejectsWrongLength(t *testing.T) {
	_, err := ParseKey(base64.StdEncoding.EncodeToString([]byte("too-short")))
	require.Error(t, err)
}
