package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

func TestPayTokenRepo(t *testing.T) {
	req := require.New(t)
	mockCtx := ctx.Background()
	im := NewPayTokenRepo()

	usdx := domain.Address("0x0000000000000000000000000000000000055D12")

	_, err := im.FindOne(mockCtx, usdx)
	req.ErrorIs(err, domain.ErrNotFound)

	req.ErrorIs(im.Upsert(mockCtx, &domain.PayToken{Address: domain.EmptyAddress}), domain.ErrBadParamInput)

	req.NoError(im.Upsert(mockCtx, &domain.PayToken{
		Name:     "USD X",
		Symbol:   "USDX",
		Decimals: 6,
		Address:  usdx,
	}))

	token, err := im.FindOne(mockCtx, usdx.ToLower())
	req.NoError(err)
	req.Equal("USDX", token.Symbol)
	req.Equal(usdx.ToLower(), token.Address)

	all, err := im.FindAll(mockCtx)
	req.NoError(err)
	req.Len(all, 1)

	req.NoError(im.Remove(mockCtx, usdx))
	req.ErrorIs(im.Remove(mockCtx, usdx), domain.ErrNotFound)
}
