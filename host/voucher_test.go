package host

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestERC20TransferEncodesSelectorAndWords(t *testing.T) {
	var to [20]byte
	to[19] = 0x42
	data := ERC20Transfer(to, big.NewInt(1000))

	require.Len(t, data, 4+32+32)
	require.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	require.Equal(t, to[:], data[4+12:4+32])
	amount := new(big.Int).SetBytes(data[4+32:])
	require.Equal(t, big.NewInt(1000), amount)
}

func TestPortalWithdrawERC20EncodesThreeArguments(t *testing.T) {
	var token, to [20]byte
	token[19] = 0x01
	to[19] = 0x02
	data := PortalWithdrawERC20(token, to, big.NewInt(5))

	require.Len(t, data, 4+96)
	require.Equal(t, "2352c0b1", hex.EncodeToString(data[:4]))
	require.Equal(t, token[:], data[4+12:4+32])
	require.Equal(t, to[:], data[4+32+12:4+64])
}

func TestBuildVoucherRejectsWrongDestinationLength(t *testing.T) {
	_, _, err := BuildVoucher([]byte{1, 2, 3}, []byte("payload"))
	require.Error(t, err)
}

func TestBuildVoucherRoundTrip(t *testing.T) {
	destination := make([]byte, 20)
	destination[0] = 0xff
	dest, payload, err := BuildVoucher(destination, []byte("calldata"))
	require.NoError(t, err)
	require.Equal(t, byte(0xff), dest[0])
	require.Equal(t, []byte("calldata"), payload)
}
