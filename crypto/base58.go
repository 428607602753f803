package crypto

import (
	"github.com/mr-tron/base58"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// DecodeBase58BTC decodes a base58btc string (no multibase prefix) to
// bytes. Leading '1' characters decode to leading zero bytes; the
// mr-tron/base58 implementation already preserves this exactly, which is
// the behavior spec §4.1 requires.
func DecodeBase58BTC(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, lerrors.CryptoError("InvalidEncoding: %s", err)
	}
	return b, nil
}

// EncodeBase58BTC encodes bytes to a base58btc string.
func EncodeBase58BTC(b []byte) string {
	return base58.Encode(b)
}
