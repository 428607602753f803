// Package envelope is the router-facing half of spec §4.3: it holds the
// process-scoped input/output keys, detects and decrypts inbound
// encrypted envelopes, and wraps sensitive outbound payloads per the
// configured output mode. The cryptographic primitives themselves live
// in package crypto; this package only decides when to call them.
package envelope

import (
	"encoding/base64"
	"encoding/json"

	lcrypto "github.com/lcore-labs/lcore-core/crypto"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// OutputMode selects how sensitive inspect results are wrapped (§4.3,
// §6's LCORE_OUTPUT_MODE).
type OutputMode string

const (
	ModeEncrypted OutputMode = "encrypted"
	ModeRaw       OutputMode = "raw"
	ModeCustom    OutputMode = "custom"
)

// CustomWrapFunc is the policy hook for ModeCustom (§4.3): given the raw
// data and the sensitive flag, it returns the final response body.
type CustomWrapFunc func(data interface{}, sensitive bool) (interface{}, error)

// Keys holds the two process-scoped keys consulted at startup (§4.3).
// Either may be absent (nil), which disables the corresponding
// direction without failing startup.
type Keys struct {
	InputPrivateKey *[32]byte
	OutputPublicKey *[32]byte
}

// Envelope wraps the process-scoped keys and output mode and exposes the
// router's two entry points: DecryptInbound and CreateResponse.
type Envelope struct {
	keys       Keys
	mode       OutputMode
	customWrap CustomWrapFunc
}

func New(keys Keys, mode OutputMode, customWrap CustomWrapFunc) *Envelope {
	return &Envelope{keys: keys, mode: mode, customWrap: customWrap}
}

// encryptedEnvelopeShape matches lcrypto.EncryptedPayload's JSON shape
// exactly, for the router's "is this an encrypted envelope" sniff.
type encryptedEnvelopeShape struct {
	Encrypted bool            `json:"encrypted"`
	Payload   json.RawMessage `json:"payload"`
}

// DecryptInbound inspects a decoded payload (as raw JSON bytes): if it
// is a JSON object with encrypted:true, it decrypts using the input private
// key and returns the inner plaintext bytes; otherwise it returns the
// payload unchanged. Decryption failure is a BadCiphertext error (§4.3).
func (e *Envelope) DecryptInbound(raw []byte) ([]byte, error) {
	var shape encryptedEnvelopeShape
	if err := json.Unmarshal(raw, &shape); err != nil || !shape.Encrypted {
		return raw, nil
	}
	if e.keys.InputPrivateKey == nil {
		return nil, lerrors.CryptoError("BadCiphertext: no input private key configured")
	}
	var env lcrypto.Envelope
	if err := json.Unmarshal(shape.Payload, &env); err != nil {
		return nil, lerrors.CryptoError("BadCiphertext: malformed envelope: %s", err)
	}
	plaintext, err := lcrypto.OpenEnvelope(*e.keys.InputPrivateKey, env)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// CreateResponse implements createResponse(data, sensitive) (§4.3): when
// sensitive and the output mode is "encrypted" with a configured output
// public key, wraps data as an encrypted envelope; in "raw" mode (or
// encrypted mode with no key configured), returns {encrypted:false,
// data}; in "custom" mode, delegates to the policy hook.
func (e *Envelope) CreateResponse(data interface{}, sensitive bool) (interface{}, error) {
	if e.mode == ModeCustom && e.customWrap != nil {
		return e.customWrap(data, sensitive)
	}
	if sensitive && e.mode == ModeEncrypted && e.keys.OutputPublicKey != nil {
		env, err := lcrypto.SealJSON(*e.keys.OutputPublicKey, data)
		if err != nil {
			return nil, err
		}
		return lcrypto.EncryptedPayload{Encrypted: true, Payload: *env}, nil
	}
	return map[string]interface{}{"encrypted": false, "data": data}, nil
}

// ParseKey decodes a 32-byte base64 key from an environment variable's
// value, as used for LCORE_ADMIN_PUBLIC_KEY / LCORE_INPUT_PRIVATE_KEY.
func ParseKey(b64 string) (*[32]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, lerrors.BadRequestError("key is not valid base64: %s", err)
	}
	if len(raw) != 32 {
		return nil, lerrors.BadRequestError("key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
