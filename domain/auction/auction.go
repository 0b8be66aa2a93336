package auction

import (
	"math/big"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

// Auction is a time-boxed competitive sale of one asset, keyed by
// (nft, tokenId). At most one auction per asset is ever live.
type Auction struct {
	Owner        domain.Address  `json:"owner"`
	Nft          domain.Address  `json:"nft"`
	TokenId      domain.TokenId  `json:"tokenId"`
	PayToken     domain.Address  `json:"payToken"`
	ReservePrice *big.Int        `json:"reservePrice"`
	StartTime    domain.UnixTime `json:"startTime"`
	EndTime      domain.UnixTime `json:"endTime"`
}

func (a *Auction) ToId() AuctionId {
	return AuctionId{
		Nft:     a.Nft,
		TokenId: a.TokenId,
	}
}

type AuctionId struct {
	Nft     domain.Address `json:"nft"`
	TokenId domain.TokenId `json:"tokenId"`
}

// Bid is the single outstanding bid of an auction; its funds are escrowed by
// the engine until it is superseded or the auction resolves.
type Bid struct {
	Nft     domain.Address `json:"nft"`
	TokenId domain.TokenId `json:"tokenId"`
	Bidder  domain.Address `json:"bidder"`
	Amount  *big.Int       `json:"amount"`
}

type AuctionRepo interface {
	// FindOne returns domain.ErrNotFound when no auction exists for the id.
	FindOne(c ctx.Ctx, id AuctionId) (*Auction, error)
	FindAll(c ctx.Ctx) ([]*Auction, error)
	Upsert(c ctx.Ctx, auction *Auction) error
	Remove(c ctx.Ctx, id AuctionId) error

	// SetResulted marks or unmarks the id as settled. The marker outlives
	// the auction record and is tracked separately from it.
	SetResulted(c ctx.Ctx, id AuctionId, resulted bool) error
	IsResulted(c ctx.Ctx, id AuctionId) (bool, error)
}

type BidRepo interface {
	// FindOne returns domain.ErrNotFound when the auction has no live bid.
	FindOne(c ctx.Ctx, id AuctionId) (*Bid, error)
	Upsert(c ctx.Ctx, bid *Bid) error
	Remove(c ctx.Ctx, id AuctionId) error
}

type UseCase interface {
	// CreateAuction requires the caller to own and have approved the asset.
	CreateAuction(c ctx.Ctx, owner, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, reservePrice *big.Int, startTime, endTime domain.UnixTime) error

	// PlaceBid escrows a native-currency bid of the attached value.
	PlaceBid(c ctx.Ctx, bidder, nft domain.Address, tokenId domain.TokenId, attached *big.Int) error

	// PlaceBidWithToken escrows a bid in the auction's pay token.
	PlaceBidWithToken(c ctx.Ctx, bidder, nft domain.Address, tokenId domain.TokenId, amount *big.Int) error

	// ResultAuction settles a finished auction exactly once.
	ResultAuction(c ctx.Ctx, caller, nft domain.Address, tokenId domain.TokenId) error

	// CancelAuction withdraws an auction that has received no bid.
	CancelAuction(c ctx.Ctx, caller, nft domain.Address, tokenId domain.TokenId) error

	GetAuction(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (*Auction, error)

	GetAuctions(c ctx.Ctx) ([]*Auction, error)

	// GetHighestBid returns domain.ErrNotFound when no bid is outstanding.
	GetHighestBid(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (*Bid, error)

	// UpdateMinBidIncrement adjusts the minimum outbid step. Operator only.
	UpdateMinBidIncrement(c ctx.Ctx, caller domain.Address, increment *big.Int) error
}
