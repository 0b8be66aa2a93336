package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	req := require.New(t)

	a := Address("0xABCdef0000000000000000000000000000000001")
	req.Equal(Address("0xabcdef0000000000000000000000000000000001"), a.ToLower())
	req.True(a.Equals(a.ToLower()))
	req.False(a.IsEmpty())

	req.True(EmptyAddress.IsEmpty())
	req.True(Address("").IsEmpty())
}

func TestParseAmount(t *testing.T) {
	req := require.New(t)

	v, err := ParseAmount("20000000000000000000")
	req.NoError(err)
	req.Equal("20000000000000000000", v.String())

	_, err = ParseAmount("")
	req.Error(err)
	_, err = ParseAmount("1.5")
	req.Error(err)
	_, err = ParseAmount("0x10")
	req.Error(err)
}

func TestCloneAmount(t *testing.T) {
	req := require.New(t)

	req.Equal("0", CloneAmount(nil).String())

	v, err := ParseAmount("42")
	req.NoError(err)
	clone := CloneAmount(v)
	clone.SetInt64(0)
	req.Equal("42", v.String())
}
