package crypto

import (
	"crypto/rand"
	"encoding/json"

	"golang.org/x/crypto/nacl/box"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

const envelopeAlgorithm = "nacl-box"

// Envelope is the wire shape of an EncryptedEnvelope (§4.1).
type Envelope struct {
	Version    int    `json:"version"`
	Algorithm  string `json:"algorithm"`
	Nonce      string `json:"nonce"`      // base64, 24 bytes
	Ciphertext string `json:"ciphertext"` // base64
	PublicKey  string `json:"publicKey"`  // base64, 32 bytes
}

// EncryptedPayload is the outer shape the router looks for on every
// inbound advance payload (§4.3): encrypted:true plus a nested
// nacl-box envelope.
type EncryptedPayload struct {
	Encrypted bool     `json:"encrypted"`
	Payload   Envelope `json:"payload"`
}

// SealEnvelope encrypts plaintext for recipientPublicKey using a fresh
// ephemeral keypair and nonce drawn from host-provided randomness (crypto/
// rand here stands in for the host's randomness source). The ephemeral
// key and nonce appear only in the returned envelope, never in guest
// state — see spec §5 and §9.
func SealEnvelope(recipientPublicKey [32]byte, plaintext []byte) (*Envelope, error) {
	ephemeralPub, ephemeralPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, lerrors.InternalError("envelope: generate ephemeral key: %s", err)
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, lerrors.InternalError("envelope: generate nonce: %s", err)
	}
	ciphertext := box.Seal(nil, plaintext, &nonce, &recipientPublicKey, ephemeralPriv)
	return &Envelope{
		Version:    1,
		Algorithm:  envelopeAlgorithm,
		Nonce:      EncodeStdB64(nonce[:]),
		Ciphertext: EncodeStdB64(ciphertext),
		PublicKey:  EncodeStdB64(ephemeralPub[:]),
	}, nil
}

// OpenEnvelope decrypts an Envelope using the guest's long-term secret
// key and the envelope's ephemeral public key.
func OpenEnvelope(localSecretKey [32]byte, env Envelope) ([]byte, error) {
	if env.Algorithm != envelopeAlgorithm {
		return nil, lerrors.CryptoError("BadCiphertext: unsupported algorithm %q", env.Algorithm)
	}
	nonceBytes, err := decodeStdB64(env.Nonce)
	if err != nil || len(nonceBytes) != 24 {
		return nil, lerrors.CryptoError("BadCiphertext: bad nonce")
	}
	ciphertext, err := decodeStdB64(env.Ciphertext)
	if err != nil {
		return nil, lerrors.CryptoError("BadCiphertext: bad ciphertext encoding")
	}
	pubBytes, err := decodeStdB64(env.PublicKey)
	if err != nil || len(pubBytes) != 32 {
		return nil, lerrors.CryptoError("BadCiphertext: bad ephemeral public key")
	}
	var nonce [24]byte
	copy(nonce[:], nonceBytes)
	var ephemeralPub [32]byte
	copy(ephemeralPub[:], pubBytes)

	plaintext, ok := box.Open(nil, ciphertext, &nonce, &ephemeralPub, &localSecretKey)
	if !ok {
		return nil, lerrors.CryptoError("BadCiphertext: decryption failed")
	}
	return plaintext, nil
}

// SealJSON is a convenience wrapper that JSON-marshals v before sealing.
func SealJSON(recipientPublicKey [32]byte, v interface{}) (*Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, lerrors.InternalError("envelope: marshal payload: %s", err)
	}
	return SealEnvelope(recipientPublicKey, b)
}
