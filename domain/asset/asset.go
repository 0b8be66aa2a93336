// Package asset declares the ownership port the settlement engine requires
// of the asset registry. How ownership records are persisted is the
// registry's concern; the engine only needs the atomic primitives below.
package asset

import (
	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

type Registry interface {
	// OwnerOf returns the current owner, domain.ErrNotFound for unknown assets.
	OwnerOf(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (domain.Address, error)

	// BalanceOf returns how many editions of the asset the holder owns.
	// Single-edition assets report 1 for the owner and 0 for anyone else.
	BalanceOf(c ctx.Ctx, holder, nft domain.Address, tokenId domain.TokenId) (int64, error)

	// IsApprovedOrOwner reports whether operator may move caller's asset:
	// caller must own it and have granted transfer approval to operator.
	IsApprovedOrOwner(c ctx.Ctx, operator, caller, nft domain.Address, tokenId domain.TokenId) (bool, error)

	// Transfer moves quantity editions from one holder to another. It fails
	// atomically; quantity is never partially moved.
	Transfer(c ctx.Ctx, from, to, nft domain.Address, tokenId domain.TokenId, quantity int64) error
}
