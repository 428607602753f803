package host

import (
	"math/big"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// Fixed 4-byte function selectors this core knows how to ABI-encode
// calldata for (SPEC_FULL §4.10). The selector table is small and fixed,
// so a hand-rolled big-endian word encoder is clearer here than adapting
// a contract-binding generator for two functions.
var (
	selectorERC20Transfer           = [4]byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selectorPortalWithdrawERC20     = [4]byte{0x23, 0x52, 0xc0, 0xb1} // withdrawERC20Tokens(address,address,uint256)
)

// abiWord left-pads b into a 32-byte big-endian ABI word.
func abiWord(b []byte) [32]byte {
	var word [32]byte
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(word[32-len(b):], b)
	return word
}

func addressWord(addr [20]byte) [32]byte {
	return abiWord(addr[:])
}

func uintWord(v *big.Int) [32]byte {
	return abiWord(v.Bytes())
}

// ERC20Transfer ABI-encodes calldata for transfer(address,uint256).
func ERC20Transfer(to [20]byte, amount *big.Int) []byte {
	out := make([]byte, 0, 4+32+32)
	out = append(out, selectorERC20Transfer[:]...)
	toWord := addressWord(to)
	out = append(out, toWord[:]...)
	amtWord := uintWord(amount)
	out = append(out, amtWord[:]...)
	return out
}

// PortalWithdrawERC20 ABI-encodes calldata for a Cartesi-style portal's
// withdrawERC20Tokens(address token, address to, uint256 amount).
func PortalWithdrawERC20(token, to [20]byte, amount *big.Int) []byte {
	out := make([]byte, 0, 4+96)
	out = append(out, selectorPortalWithdrawERC20[:]...)
	tokenWord := addressWord(token)
	out = append(out, tokenWord[:]...)
	toWord := addressWord(to)
	out = append(out, toWord[:]...)
	amtWord := uintWord(amount)
	out = append(out, amtWord[:]...)
	return out
}

// BuildVoucher validates a 20-byte destination and pairs it with
// already-encoded calldata, ready for Client.Voucher.
func BuildVoucher(destination []byte, payload []byte) ([20]byte, []byte, error) {
	var dest [20]byte
	if len(destination) != 20 {
		return dest, nil, lerrors.BadRequestError("voucher destination must be 20 bytes, got %d", len(destination))
	}
	copy(dest[:], destination)
	return dest, payload, nil
}
