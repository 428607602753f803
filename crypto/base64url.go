package crypto

import "encoding/base64"

// EncodeBase64URL encodes bytes with the URL-safe alphabet and no
// padding, matching §4.1's base64url spec.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL decodes a base64url string, tolerating a missing or
// present padding and, for leniency with callers that forgot to strip it,
// standard '+'/'/' in place of '-'/'_' is NOT accepted — §4.1 specifies
// the URL-safe alphabet only.
func DecodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	// Tolerate an input that still carries '=' padding.
	return base64.URLEncoding.DecodeString(s)
}

// EncodeStdB64 encodes bytes with the standard (non-URL) base64
// alphabet and padding, the encoding §4.1 specifies for EncryptedEnvelope
// fields (nonce/ciphertext/publicKey), as distinct from the base64url
// encoding used for JWS compact serialization.
func EncodeStdB64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodeStdB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
