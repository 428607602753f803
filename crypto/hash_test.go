package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSHA256IsDeterministicAndDistinct(t *testing.T) {
	a := SHA256([]byte("hello"))
	b := SHA256([]byte("hello"))
	c := SHA256([]byte("world"))

	require.Len(t, a, 32)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
