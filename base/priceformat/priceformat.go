// Package priceformat converts smallest-unit integer amounts to display
// prices using the pay token's decimals.
package priceformat

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/domain"
)

const nativeDecimals = 18

type PriceFormatter interface {
	// GetDisplayPrice renders amount in whole token units, e.g. 19500000000000000000 -> "19.5".
	GetDisplayPrice(c ctx.Ctx, token domain.Address, amount *big.Int) (string, error)
}

type impl struct {
	paytoken domain.PayTokenRepo
}

func NewPriceFormatter(paytoken domain.PayTokenRepo) PriceFormatter {
	return &impl{paytoken: paytoken}
}

func (im *impl) GetDisplayPrice(c ctx.Ctx, token domain.Address, amount *big.Int) (string, error) {
	decimals := int32(nativeDecimals)
	if !token.IsEmpty() {
		pt, err := im.paytoken.FindOne(c, token)
		if err != nil {
			c.WithFields(log.Fields{
				"err":   err,
				"token": token,
			}).Error("failed to paytoken.FindOne")
			return "", err
		}
		decimals = pt.Decimals
	}

	return decimal.NewFromBigInt(amount, -decimals).String(), nil
}
