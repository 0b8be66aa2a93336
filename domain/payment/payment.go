// Package payment defines the uniform value-movement boundary used by the
// marketplace and auction engines. Both the native currency and fungible pay
// tokens move through the same interface so fee splitting and atomicity rules
// cannot diverge between the two paths.
package payment

import (
	"math/big"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

type MediumKind int

const (
	MediumNative MediumKind = iota
	MediumToken
)

// Medium is the tagged payment variant. The zero-address token selects the
// native currency.
type Medium struct {
	Kind  MediumKind
	Token domain.Address
}

func MediumOf(token domain.Address) Medium {
	if token.IsEmpty() {
		return Medium{Kind: MediumNative, Token: domain.EmptyAddress}
	}
	return Medium{Kind: MediumToken, Token: token.ToLower()}
}

func (m Medium) IsNative() bool {
	return m.Kind == MediumNative
}

type Payout struct {
	Payee  domain.Address
	Amount *big.Int
}

// Service moves value between accounts and engine custody.
//
// Collect pulls amount into custody. On the native medium attached is the
// value sent along with the call; any excess over amount is returned to the
// payer within the same operation. On the token medium attached is ignored
// and the pull requires prior allowance. A failed Collect has no effect.
//
// Disburse pushes amount from custody to payee, all or nothing.
//
// Settle applies a batch of payouts from custody atomically; either every
// payout lands or none does. Settlements use it so a fee payment can never
// succeed while the seller payment fails.
type Service interface {
	Collect(c ctx.Ctx, payer domain.Address, medium Medium, amount, attached *big.Int) error
	Disburse(c ctx.Ctx, payee domain.Address, medium Medium, amount *big.Int) error
	Settle(c ctx.Ctx, medium Medium, payouts []Payout) error

	// BalanceOf reports the spendable balance of an account in the medium,
	// excluding funds held in engine custody.
	BalanceOf(c ctx.Ctx, account domain.Address, medium Medium) (*big.Int, error)
}
