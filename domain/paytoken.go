package domain

import (
	"github.com/octans/marketplace/base/ctx"
)

// PayToken is an entry of the accepted payment token allow-list. The native
// currency is represented by EmptyAddress and is always accepted.
type PayToken struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals int32   `json:"decimals"`
	Address  Address `json:"address"`
}

type PayTokenRepo interface {
	// FindOne returns domain.ErrNotFound for tokens outside the allow-list.
	FindOne(ctx.Ctx, Address) (*PayToken, error)
	FindAll(ctx.Ctx) ([]*PayToken, error)
	Upsert(ctx.Ctx, *PayToken) error
	Remove(ctx.Ctx, Address) error
}
