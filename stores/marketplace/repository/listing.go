package repository

import (
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/marketplace"
)

type listingRepoImpl struct {
	mu       sync.RWMutex
	listings map[marketplace.ListingId]marketplace.Listing
}

func NewListingRepo() marketplace.Repo {
	return &listingRepoImpl{
		listings: map[marketplace.ListingId]marketplace.Listing{},
	}
}

func normalizeId(id marketplace.ListingId) marketplace.ListingId {
	return marketplace.ListingId{
		Nft:     id.Nft.ToLower(),
		TokenId: id.TokenId,
		Owner:   id.Owner.ToLower(),
	}
}

func (im *listingRepoImpl) FindOne(c ctx.Ctx, id marketplace.ListingId) (*marketplace.Listing, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	listing, ok := im.listings[normalizeId(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	res := listing
	res.PricePerItem = domain.CloneAmount(listing.PricePerItem)
	return &res, nil
}

func (im *listingRepoImpl) FindAll(c ctx.Ctx, opts ...marketplace.FindAllOptions) ([]*marketplace.Listing, error) {
	options, err := marketplace.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	res := []*marketplace.Listing{}
	for id := range im.listings {
		if options.Owner != nil && !id.Owner.Equals(*options.Owner) {
			continue
		}
		if options.Nft != nil && !id.Nft.Equals(*options.Nft) {
			continue
		}
		listing := im.listings[id]
		if options.PayToken != nil && !listing.PayToken.Equals(*options.PayToken) {
			continue
		}
		listing.PricePerItem = domain.CloneAmount(listing.PricePerItem)
		res = append(res, &listing)
	}
	return res, nil
}

func (im *listingRepoImpl) Upsert(c ctx.Ctx, listing *marketplace.Listing) error {
	if listing == nil || listing.Quantity < 1 {
		return domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	stored := *listing
	stored.Owner = stored.Owner.ToLower()
	stored.Nft = stored.Nft.ToLower()
	stored.PayToken = stored.PayToken.ToLower()
	stored.PricePerItem = domain.CloneAmount(listing.PricePerItem)
	im.listings[stored.ToId()] = stored
	return nil
}

func (im *listingRepoImpl) Remove(c ctx.Ctx, id marketplace.ListingId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := normalizeId(id)
	if _, ok := im.listings[key]; !ok {
		return domain.ErrNotFound
	}
	delete(im.listings, key)
	return nil
}
