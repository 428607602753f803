package crypto

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

type devicePayload struct {
	Reading float64 `json:"reading"`
	Sensor  string  `json:"sensor"`
}

func signFixture(t *testing.T, priv *btcec.PrivateKey, payload interface{}) (jws string, canonical []byte) {
	t.Helper()
	canonical, err := Canonicalize(payload)
	require.NoError(t, err)

	header := EncodeBase64URL([]byte(`{"alg":"ES256K"}`))
	body := EncodeBase64URL(canonical)
	sig := SignCompactJWS(priv, header, body)
	jws = header + "." + body + "." + EncodeBase64URL(sig)
	return jws, canonical
}

func TestVerifyJWSRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	did := DIDKeyFromPublic(priv.PubKey())

	payload := devicePayload{Reading: 21.5, Sensor: "temp-1"}
	jws, canonical := signFixture(t, priv, payload)

	ok, err := VerifyJWS(jws, canonical, did)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyJWSRejectsTamperedPayload(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	did := DIDKeyFromPublic(priv.PubKey())

	jws, _ := signFixture(t, priv, devicePayload{Reading: 21.5, Sensor: "temp-1"})
	tamperedCanonical, err := Canonicalize(devicePayload{Reading: 99.9, Sensor: "temp-1"})
	require.NoError(t, err)

	_, err = VerifyJWS(jws, tamperedCanonical, did)
	require.Error(t, err)
}

func TestVerifyJWSRejectsWrongSigner(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	wrongDID := DIDKeyFromPublic(other.PubKey())

	jws, canonical := signFixture(t, priv, devicePayload{Reading: 1, Sensor: "s"})
	ok, err := VerifyJWS(jws, canonical, wrongDID)
	require.Error(t, err)
	require.False(t, ok)
}

func TestVerifyJWSRejectsMalformedCompact(t *testing.T) {
	_, err := VerifyJWS("not-a-jws", []byte(`{}`), "did:key:zfoo")
	require.Error(t, err)
}

func TestDIDKeyRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	did := DIDKeyFromPublic(priv.PubKey())
	require.Contains(t, did, "did:key:z")

	pubBytes, err := ParseDIDKey(did)
	require.NoError(t, err)
	require.Equal(t, priv.PubKey().SerializeCompressed(), pubBytes)
}

func TestParseDIDKeyRejectsBadPrefix(t *testing.T) {
	_, err := ParseDIDKey("not-a-did")
	require.Error(t, err)
}
