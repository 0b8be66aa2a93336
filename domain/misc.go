package domain

import (
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

var (
	Big1     = big.NewInt(1)
	Big10000 = big.NewInt(10000)
)

type Address string

// EmptyAddress is the native-currency sentinel: a listing or auction priced
// with this pay token settles in the chain's native currency.
const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

// UnixTime is a second-resolution timestamp as used on the wire.
type UnixTime int64

// ParseAmount parses a base-10 smallest-unit amount. Amounts are always
// non-negative; a negative or malformed string is rejected.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, xerrors.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, xerrors.Errorf("negative amount %q", s)
	}
	return v, nil
}

// CloneAmount returns a copy of v, or a zero value when v is nil.
func CloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
