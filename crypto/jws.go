package crypto

import (
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

const algES256K = "ES256K"

type jwsHeader struct {
	Alg string `json:"alg"`
}

// Canonicalize renders v as the canonical JSON bytes a signer is expected
// to have produced. Per the design note in spec §9, canonicalization is
// "the field order emitted by the signer" — for Go values that means the
// struct's declared field order (json.Marshal's own behavior), so callers
// must shape `expected` to match what the signer actually serialized.
func Canonicalize(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, lerrors.CryptoError("MalformedJws: cannot canonicalize expected payload: %s", err)
	}
	return b, nil
}

// VerifyJWS verifies a compact-serialization JWS `H.P.S` as ES256K against
// the given did:key and an already-canonicalized expected payload (see
// Canonicalize). It never panics; failures are reported through the
// returned error, whose Detail begins with one of MalformedJws,
// UnsupportedAlgorithm, PayloadMismatch, BadDidKey, or BadSignature (§4.1).
func VerifyJWS(jws string, expectedPayloadCanonical []byte, did string) (bool, error) {
	parts := strings.Split(jws, ".")
	if len(parts) != 3 {
		return false, lerrors.CryptoError("MalformedJws: expected 3 compact parts, got %d", len(parts))
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerBytes, err := DecodeBase64URL(headerB64)
	if err != nil {
		return false, lerrors.CryptoError("MalformedJws: bad header encoding: %s", err)
	}
	var header jwsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return false, lerrors.CryptoError("MalformedJws: bad header JSON: %s", err)
	}
	if header.Alg != algES256K {
		return false, lerrors.CryptoError("UnsupportedAlgorithm: %q", header.Alg)
	}

	payloadBytes, err := DecodeBase64URL(payloadB64)
	if err != nil {
		return false, lerrors.CryptoError("MalformedJws: bad payload encoding: %s", err)
	}
	if !jsonEqual(payloadBytes, expectedPayloadCanonical) {
		return false, lerrors.CryptoError("PayloadMismatch")
	}

	pubBytes, err := ParseDIDKey(did)
	if err != nil {
		return false, err
	}
	pubKey, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return false, lerrors.CryptoError("BadDidKey: %s", err)
	}

	sigBytes, err := DecodeBase64URL(sigB64)
	if err != nil {
		return false, lerrors.CryptoError("MalformedJws: bad signature encoding: %s", err)
	}
	if len(sigBytes) != 64 {
		return false, lerrors.CryptoError("BadSignature: expected 64-byte r||s, got %d", len(sigBytes))
	}

	digest := sha256.Sum256([]byte(headerB64 + "." + payloadB64))

	sig, err := signatureFromCompact(sigBytes)
	if err != nil {
		return false, lerrors.CryptoError("BadSignature: %s", err)
	}
	if !sig.Verify(digest[:], pubKey) {
		return false, lerrors.CryptoError("BadSignature: signature verification failed")
	}
	return true, nil
}

// jsonEqual compares two JSON byte slices for exact byte equality, per
// the "carry original bytes through verification rather than
// re-serializing" design note: no JSON-level re-normalization is
// performed, so callers are responsible for matching field order.
func jsonEqual(a, b []byte) bool {
	return string(a) == string(b)
}

// signatureFromCompact rebuilds an ecdsa.Signature from a 64-byte r||s
// compact encoding (the wire format §4.1 specifies for the JWS signature
// part).
func signatureFromCompact(b []byte) (*ecdsa.Signature, error) {
	if len(b) != 64 {
		return nil, lerrors.CryptoError("expected 64-byte r||s signature, got %d", len(b))
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(b[:32]); overflow {
		return nil, lerrors.CryptoError("signature r overflows the curve order")
	}
	if overflow := s.SetByteSlice(b[32:]); overflow {
		return nil, lerrors.CryptoError("signature s overflows the curve order")
	}
	return ecdsa.NewSignature(&r, &s), nil
}
