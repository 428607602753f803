package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SignCompactJWS signs headerB64+"."+payloadB64 with the given secp256k1
// private key and returns the 64-byte r||s signature. It is not used by
// the guest itself (the guest only verifies), but is exercised by tests
// that need to construct fixtures the way a real device/attestor would.
func SignCompactJWS(priv *btcec.PrivateKey, headerB64, payloadB64 string) []byte {
	digest := sha256.Sum256([]byte(headerB64 + "." + payloadB64))
	sig := ecdsa.Sign(priv, digest[:])
	r := sig.R()
	s := sig.S()
	out := make([]byte, 64)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(out[0:32], rBytes[:])
	copy(out[32:64], sBytes[:])
	return out
}

// DIDKeyFromPublic builds a did:key identifier from a compressed
// secp256k1 public key, the inverse of ParseDIDKey.
func DIDKeyFromPublic(pub *btcec.PublicKey) string {
	compressed := pub.SerializeCompressed()
	body := append([]byte{secp256k1High, secp256k1Low}, compressed...)
	return didKeyPrefix + multibaseZ + EncodeBase58BTC(body)
}
