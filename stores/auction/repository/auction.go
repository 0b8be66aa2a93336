package repository

import (
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/auction"
)

type auctionRepoImpl struct {
	mu       sync.RWMutex
	auctions map[auction.AuctionId]auction.Auction
	resulted map[auction.AuctionId]bool
}

func NewAuctionRepo() auction.AuctionRepo {
	return &auctionRepoImpl{
		auctions: map[auction.AuctionId]auction.Auction{},
		resulted: map[auction.AuctionId]bool{},
	}
}

func normalizeId(id auction.AuctionId) auction.AuctionId {
	return auction.AuctionId{
		Nft:     id.Nft.ToLower(),
		TokenId: id.TokenId,
	}
}

func (im *auctionRepoImpl) FindOne(c ctx.Ctx, id auction.AuctionId) (*auction.Auction, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	auc, ok := im.auctions[normalizeId(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	res := auc
	res.ReservePrice = domain.CloneAmount(auc.ReservePrice)
	return &res, nil
}

func (im *auctionRepoImpl) FindAll(c ctx.Ctx) ([]*auction.Auction, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	res := []*auction.Auction{}
	for id := range im.auctions {
		auc := im.auctions[id]
		auc.ReservePrice = domain.CloneAmount(auc.ReservePrice)
		res = append(res, &auc)
	}
	return res, nil
}

func (im *auctionRepoImpl) Upsert(c ctx.Ctx, auc *auction.Auction) error {
	if auc == nil {
		return domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	stored := *auc
	stored.Owner = stored.Owner.ToLower()
	stored.Nft = stored.Nft.ToLower()
	stored.PayToken = stored.PayToken.ToLower()
	stored.ReservePrice = domain.CloneAmount(auc.ReservePrice)
	im.auctions[stored.ToId()] = stored
	return nil
}

func (im *auctionRepoImpl) Remove(c ctx.Ctx, id auction.AuctionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := normalizeId(id)
	if _, ok := im.auctions[key]; !ok {
		return domain.ErrNotFound
	}
	delete(im.auctions, key)
	return nil
}

func (im *auctionRepoImpl) SetResulted(c ctx.Ctx, id auction.AuctionId, resulted bool) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := normalizeId(id)
	if resulted {
		im.resulted[key] = true
	} else {
		delete(im.resulted, key)
	}
	return nil
}

func (im *auctionRepoImpl) IsResulted(c ctx.Ctx, id auction.AuctionId) (bool, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.resulted[normalizeId(id)], nil
}
