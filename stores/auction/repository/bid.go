package repository

import (
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/auction"
)

type bidRepoImpl struct {
	mu   sync.RWMutex
	bids map[auction.AuctionId]auction.Bid
}

func NewBidRepo() auction.BidRepo {
	return &bidRepoImpl{
		bids: map[auction.AuctionId]auction.Bid{},
	}
}

func (im *bidRepoImpl) FindOne(c ctx.Ctx, id auction.AuctionId) (*auction.Bid, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	bid, ok := im.bids[normalizeId(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	res := bid
	res.Amount = domain.CloneAmount(bid.Amount)
	return &res, nil
}

func (im *bidRepoImpl) Upsert(c ctx.Ctx, bid *auction.Bid) error {
	if bid == nil || bid.Amount == nil || bid.Amount.Sign() < 1 {
		return domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	stored := *bid
	stored.Nft = stored.Nft.ToLower()
	stored.Bidder = stored.Bidder.ToLower()
	stored.Amount = domain.CloneAmount(bid.Amount)
	im.bids[auction.AuctionId{Nft: stored.Nft, TokenId: stored.TokenId}] = stored
	return nil
}

func (im *bidRepoImpl) Remove(c ctx.Ctx, id auction.AuctionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := normalizeId(id)
	if _, ok := im.bids[key]; !ok {
		return domain.ErrNotFound
	}
	delete(im.bids, key)
	return nil
}
