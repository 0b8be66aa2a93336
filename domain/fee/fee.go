// Package fee holds the platform fee policy shared by marketplace and
// auction settlement.
package fee

import (
	"math/big"

	"github.com/octans/marketplace/domain"
)

const maxRateBps = 10000

// Split divides amount into the platform cut and the remainder.
// fee = floor(amount * rateBps / 10000); any rounding remainder accrues to
// the remainder side, never lost, never double counted.
func Split(amount *big.Int, rateBps int64) (feeCut, remainder *big.Int) {
	feeCut = new(big.Int).Mul(amount, big.NewInt(rateBps))
	feeCut.Div(feeCut, domain.Big10000)
	remainder = new(big.Int).Sub(amount, feeCut)
	return feeCut, remainder
}

// Policy is process-wide settlement configuration. It is initialized once at
// startup and mutated only by the operator; engine operations read it but
// never change it.
type Policy struct {
	platformFeeBps int64
	feeRecipient   domain.Address
	operator       domain.Address
}

func NewPolicy(platformFeeBps int64, feeRecipient, operator domain.Address) (*Policy, error) {
	if platformFeeBps < 0 || platformFeeBps > maxRateBps {
		return nil, domain.ErrInvalidFeeRate
	}
	if feeRecipient.IsEmpty() || operator.IsEmpty() {
		return nil, domain.ErrBadParamInput
	}
	return &Policy{
		platformFeeBps: platformFeeBps,
		feeRecipient:   feeRecipient.ToLower(),
		operator:       operator.ToLower(),
	}, nil
}

func (p *Policy) PlatformFeeBps() int64 {
	return p.platformFeeBps
}

func (p *Policy) FeeRecipient() domain.Address {
	return p.feeRecipient
}

func (p *Policy) Operator() domain.Address {
	return p.operator
}

func (p *Policy) IsOperator(caller domain.Address) bool {
	return p.operator.Equals(caller)
}

// Split applies the configured rate to amount.
func (p *Policy) Split(amount *big.Int) (feeCut, remainder *big.Int) {
	return Split(amount, p.platformFeeBps)
}

// UpdateRate changes the platform fee rate. Operator only; an out-of-range
// rate is rejected here, never at settlement time.
func (p *Policy) UpdateRate(caller domain.Address, rateBps int64) error {
	if !p.IsOperator(caller) {
		return domain.ErrNotAuthorized
	}
	if rateBps < 0 || rateBps > maxRateBps {
		return domain.ErrInvalidFeeRate
	}
	p.platformFeeBps = rateBps
	return nil
}

// UpdateRecipient changes the platform fee recipient. Operator only.
func (p *Policy) UpdateRecipient(caller, recipient domain.Address) error {
	if !p.IsOperator(caller) {
		return domain.ErrNotAuthorized
	}
	if recipient.IsEmpty() {
		return domain.ErrBadParamInput
	}
	p.feeRecipient = recipient.ToLower()
	return nil
}
