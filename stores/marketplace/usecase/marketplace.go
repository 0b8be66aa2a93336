package usecase

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/asset"
	"github.com/octans/marketplace/domain/fee"
	"github.com/octans/marketplace/domain/marketplace"
	"github.com/octans/marketplace/domain/payment"
)

type MarketplaceUseCaseCfg struct {
	ListingRepo   marketplace.Repo
	PaytokenRepo  domain.PayTokenRepo
	AssetRegistry asset.Registry
	Payment       payment.Service
	FeePolicy     *fee.Policy

	// EngineAddress is the identity sellers grant transfer approval to.
	EngineAddress domain.Address

	// SettleLock serializes every settlement operation across marketplace
	// and auction; both usecases must share the same lock.
	SettleLock *sync.Mutex

	Bus EventBus.Bus

	// Now is the settlement clock; defaults to time.Now.
	Now func() time.Time
}

type impl struct {
	listingRepo   marketplace.Repo
	paytokenRepo  domain.PayTokenRepo
	assetRegistry asset.Registry
	payment       payment.Service
	feePolicy     *fee.Policy
	engineAddress domain.Address
	settleLock    *sync.Mutex
	bus           EventBus.Bus
	now           func() time.Time
}

func New(cfg *MarketplaceUseCaseCfg) marketplace.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &impl{
		listingRepo:   cfg.ListingRepo,
		paytokenRepo:  cfg.PaytokenRepo,
		assetRegistry: cfg.AssetRegistry,
		payment:       cfg.Payment,
		feePolicy:     cfg.FeePolicy,
		engineAddress: cfg.EngineAddress.ToLower(),
		settleLock:    cfg.SettleLock,
		bus:           cfg.Bus,
		now:           now,
	}
}

func (im *impl) publish(topic string, ev interface{}) {
	if im.bus != nil {
		im.bus.Publish(topic, ev)
	}
}

func (im *impl) validPayToken(c ctx.Ctx, payToken domain.Address) error {
	if payToken.IsEmpty() {
		return nil
	}
	if _, err := im.paytokenRepo.FindOne(c, payToken); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidPayToken
		}
		return err
	}
	return nil
}

func (im *impl) sellerCanDeliver(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId, quantity int64) error {
	balance, err := im.assetRegistry.BalanceOf(c, seller, nft, tokenId)
	if err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.BalanceOf")
		return err
	}
	if balance < quantity {
		return domain.ErrNotOwnerOrUnapproved
	}
	approved, err := im.assetRegistry.IsApprovedOrOwner(c, im.engineAddress, seller, nft, tokenId)
	if err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.IsApprovedOrOwner")
		return err
	}
	if !approved {
		return domain.ErrNotOwnerOrUnapproved
	}
	return nil
}

func ctxWithItem(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) ctx.Ctx {
	return ctx.WithValues(c, map[string]interface{}{
		"nft":     nft,
		"tokenId": tokenId,
	})
}

func (im *impl) ListItem(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId, quantity int64, payToken domain.Address, pricePerItem *big.Int, startingTime domain.UnixTime) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if pricePerItem == nil || pricePerItem.Sign() < 1 {
		return domain.ErrInvalidPrice
	}
	if err := im.validPayToken(c, payToken); err != nil {
		return err
	}

	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := marketplace.ListingId{Nft: nft.ToLower(), TokenId: tokenId, Owner: seller.ToLower()}
	if _, err := im.listingRepo.FindOne(c, id); err == nil {
		return domain.ErrAlreadyListed
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := im.sellerCanDeliver(c, seller, nft, tokenId, quantity); err != nil {
		return err
	}

	listing := &marketplace.Listing{
		Owner:        seller.ToLower(),
		Nft:          nft.ToLower(),
		TokenId:      tokenId,
		Quantity:     quantity,
		PayToken:     payToken.ToLower(),
		PricePerItem: pricePerItem,
		StartingTime: startingTime,
	}
	if err := im.listingRepo.Upsert(c, listing); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to listingRepo.Upsert")
		return err
	}

	im.publish(domain.TopicListed, domain.ListedEvent{
		Seller:       listing.Owner,
		Nft:          listing.Nft,
		TokenId:      listing.TokenId,
		Quantity:     listing.Quantity,
		PayToken:     listing.PayToken,
		PricePerItem: pricePerItem.String(),
		StartingTime: listing.StartingTime,
	})
	return nil
}

func (im *impl) UpdateListing(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId, newPayToken domain.Address, newPrice *big.Int) error {
	if newPrice == nil || newPrice.Sign() < 1 {
		return domain.ErrInvalidPrice
	}
	if err := im.validPayToken(c, newPayToken); err != nil {
		return err
	}

	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := marketplace.ListingId{Nft: nft.ToLower(), TokenId: tokenId, Owner: seller.ToLower()}
	listing, err := im.listingRepo.FindOne(c, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrListingNotActive
		}
		return err
	}

	listing.PayToken = newPayToken.ToLower()
	listing.PricePerItem = newPrice
	if err := im.listingRepo.Upsert(c, listing); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to listingRepo.Upsert")
		return err
	}

	im.publish(domain.TopicListingUpdated, domain.ListingUpdatedEvent{
		Seller:       listing.Owner,
		Nft:          listing.Nft,
		TokenId:      listing.TokenId,
		PayToken:     listing.PayToken,
		PricePerItem: newPrice.String(),
	})
	return nil
}

func (im *impl) CancelListing(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId) error {
	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := marketplace.ListingId{Nft: nft.ToLower(), TokenId: tokenId, Owner: seller.ToLower()}
	if _, err := im.listingRepo.FindOne(c, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrListingNotActive
		}
		return err
	}

	if err := im.listingRepo.Remove(c, id); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to listingRepo.Remove")
		return err
	}

	im.publish(domain.TopicListingCanceled, domain.ListingCanceledEvent{
		Seller:  id.Owner,
		Nft:     id.Nft,
		TokenId: id.TokenId,
	})
	return nil
}

func (im *impl) BuyItem(c ctx.Ctx, buyer, nft domain.Address, tokenId domain.TokenId, seller domain.Address, attached *big.Int) error {
	return im.buy(c, buyer, nft, tokenId, domain.EmptyAddress, seller, attached)
}

func (im *impl) BuyItemWithToken(c ctx.Ctx, buyer, nft domain.Address, tokenId domain.TokenId, payToken, seller domain.Address) error {
	if payToken.IsEmpty() {
		return domain.ErrInvalidPayToken
	}
	return im.buy(c, buyer, nft, tokenId, payToken, seller, nil)
}

// buy settles a purchase as one unit: collect funds, clear the listing,
// move the asset, then pay out. Internal state is final before any payout
// leaves custody; a failed step unwinds everything done before it.
func (im *impl) buy(c ctx.Ctx, buyer, nft domain.Address, tokenId domain.TokenId, payToken, seller domain.Address, attached *big.Int) error {
	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := marketplace.ListingId{Nft: nft.ToLower(), TokenId: tokenId, Owner: seller.ToLower()}
	listing, err := im.listingRepo.FindOne(c, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrListingNotActive
		}
		return err
	}

	if !listing.PayToken.Equals(payToken) {
		return domain.ErrInvalidPayToken
	}
	if domain.UnixTime(im.now().Unix()) < listing.StartingTime {
		return domain.ErrListingNotActive
	}
	if err := im.sellerCanDeliver(c, listing.Owner, listing.Nft, listing.TokenId, listing.Quantity); err != nil {
		return err
	}

	medium := payment.MediumOf(payToken)
	total := new(big.Int).Mul(listing.PricePerItem, big.NewInt(listing.Quantity))

	if err := im.payment.Collect(c, buyer, medium, total, attached); err != nil {
		return err
	}

	if err := im.listingRepo.Remove(c, id); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to listingRepo.Remove")
		im.refund(c, buyer, medium, total)
		return err
	}

	if err := im.assetRegistry.Transfer(c, listing.Owner, buyer, listing.Nft, listing.TokenId, listing.Quantity); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.Transfer")
		im.restoreListing(c, listing)
		im.refund(c, buyer, medium, total)
		return domain.ErrTransferFailed
	}

	feeCut, proceeds := im.feePolicy.Split(total)
	payouts := []payment.Payout{
		{Payee: im.feePolicy.FeeRecipient(), Amount: feeCut},
		{Payee: listing.Owner, Amount: proceeds},
	}
	if err := im.payment.Settle(c, medium, payouts); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to payment.Settle")
		if terr := im.assetRegistry.Transfer(c, buyer, listing.Owner, listing.Nft, listing.TokenId, listing.Quantity); terr != nil {
			ctxWithItem(c, nft, tokenId).WithField("err", terr).Error("failed to revert assetRegistry.Transfer")
		}
		im.restoreListing(c, listing)
		im.refund(c, buyer, medium, total)
		return domain.ErrTransferFailed
	}

	im.publish(domain.TopicItemSold, domain.ItemSoldEvent{
		Seller:       listing.Owner,
		Buyer:        buyer.ToLower(),
		Nft:          listing.Nft,
		TokenId:      listing.TokenId,
		Quantity:     listing.Quantity,
		PayToken:     listing.PayToken,
		PricePerItem: listing.PricePerItem.String(),
	})
	return nil
}

func (im *impl) refund(c ctx.Ctx, buyer domain.Address, medium payment.Medium, total *big.Int) {
	if err := im.payment.Disburse(c, buyer, medium, total); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"buyer": buyer,
		}).Error("failed to refund buyer")
	}
}

func (im *impl) restoreListing(c ctx.Ctx, listing *marketplace.Listing) {
	if err := im.listingRepo.Upsert(c, listing); err != nil {
		ctxWithItem(c, listing.Nft, listing.TokenId).WithField("err", err).Error("failed to restore listing")
	}
}

func (im *impl) GetListing(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId, seller domain.Address) (*marketplace.Listing, error) {
	id := marketplace.ListingId{Nft: nft.ToLower(), TokenId: tokenId, Owner: seller.ToLower()}
	listing, err := im.listingRepo.FindOne(c, id)
	if errors.Is(err, domain.ErrNotFound) {
		return marketplace.Zero(nft, tokenId, seller), nil
	}
	if err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to listingRepo.FindOne")
		return nil, err
	}
	return listing, nil
}

func (im *impl) GetListings(c ctx.Ctx, opts ...marketplace.FindAllOptions) ([]*marketplace.Listing, error) {
	res, err := im.listingRepo.FindAll(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("failed to listingRepo.FindAll")
		return nil, err
	}
	return res, nil
}
