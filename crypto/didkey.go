package crypto

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

const (
	didKeyPrefix  = "did:key:"
	multibaseZ    = "z"
	secp256k1High = 0xE7
	secp256k1Low  = 0x01
	pubKeyLen     = 33
)

// ParseDIDKey parses a `did:key:z<base58>` identifier and returns the
// 33-byte compressed secp256k1 public key it encodes (§4.1).
func ParseDIDKey(did string) ([]byte, error) {
	rest := strings.TrimPrefix(did, didKeyPrefix)
	if rest == did {
		return nil, lerrors.CryptoError("BadDidKey: missing %q prefix", didKeyPrefix)
	}
	rest = strings.TrimPrefix(rest, multibaseZ)
	if !strings.HasPrefix(did, didKeyPrefix+multibaseZ) {
		return nil, lerrors.CryptoError("BadDidKey: missing multibase %q prefix", multibaseZ)
	}

	decoded, err := DecodeBase58BTC(rest)
	if err != nil {
		return nil, lerrors.CryptoError("BadDidKey: %s", err)
	}
	if len(decoded) < 2+pubKeyLen {
		return nil, lerrors.CryptoError("BadDidKey: too short (%d bytes)", len(decoded))
	}
	if decoded[0] != secp256k1High || decoded[1] != secp256k1Low {
		return nil, lerrors.CryptoError("BadDidKey: unsupported multicodec 0x%02x%02x", decoded[0], decoded[1])
	}

	pubBytes := decoded[2 : 2+pubKeyLen]
	if _, err := btcec.ParsePubKey(pubBytes); err != nil {
		return nil, lerrors.CryptoError("BadDidKey: invalid secp256k1 public key: %s", err)
	}
	return pubBytes, nil
}
