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
	"github.com/octans/marketplace/domain/auction"
	"github.com/octans/marketplace/domain/fee"
	"github.com/octans/marketplace/domain/payment"
)

type AuctionUseCaseCfg struct {
	AuctionRepo   auction.AuctionRepo
	BidRepo       auction.BidRepo
	PaytokenRepo  domain.PayTokenRepo
	AssetRegistry asset.Registry
	Payment       payment.Service
	FeePolicy     *fee.Policy

	// EngineAddress is the identity owners grant transfer approval to.
	EngineAddress domain.Address

	// MinBidIncrement is the smallest step a new bid must clear over the
	// outstanding one.
	MinBidIncrement *big.Int

	// SettleLock serializes every settlement operation across marketplace
	// and auction; both usecases must share the same lock.
	SettleLock *sync.Mutex

	Bus EventBus.Bus

	// Now is the settlement clock; defaults to time.Now.
	Now func() time.Time
}

type impl struct {
	auctionRepo   auction.AuctionRepo
	bidRepo       auction.BidRepo
	paytokenRepo  domain.PayTokenRepo
	assetRegistry asset.Registry
	payment       payment.Service
	feePolicy     *fee.Policy
	engineAddress domain.Address
	minIncrement  *big.Int
	settleLock    *sync.Mutex
	bus           EventBus.Bus
	now           func() time.Time
}

func New(cfg *AuctionUseCaseCfg) auction.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	minIncrement := cfg.MinBidIncrement
	if minIncrement == nil {
		minIncrement = domain.Big1
	}
	return &impl{
		auctionRepo:   cfg.AuctionRepo,
		bidRepo:       cfg.BidRepo,
		paytokenRepo:  cfg.PaytokenRepo,
		assetRegistry: cfg.AssetRegistry,
		payment:       cfg.Payment,
		feePolicy:     cfg.FeePolicy,
		engineAddress: cfg.EngineAddress.ToLower(),
		minIncrement:  domain.CloneAmount(minIncrement),
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

func ctxWithItem(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) ctx.Ctx {
	return ctx.WithValues(c, map[string]interface{}{
		"nft":     nft,
		"tokenId": tokenId,
	})
}

func (im *impl) CreateAuction(c ctx.Ctx, owner, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, reservePrice *big.Int, startTime, endTime domain.UnixTime) error {
	if reservePrice == nil || reservePrice.Sign() < 0 {
		return domain.ErrInvalidPrice
	}
	if startTime >= endTime || startTime < domain.UnixTime(im.now().Unix()) {
		return domain.ErrInvalidTimeWindow
	}
	if !payToken.IsEmpty() {
		if _, err := im.paytokenRepo.FindOne(c, payToken); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidPayToken
			}
			return err
		}
	}

	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId}
	if _, err := im.auctionRepo.FindOne(c, id); err == nil {
		return domain.ErrAlreadyAuctioned
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	currentOwner, err := im.assetRegistry.OwnerOf(c, nft, tokenId)
	if err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.OwnerOf")
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotOwnerOrUnapproved
		}
		return err
	}
	if !currentOwner.Equals(owner) {
		return domain.ErrNotOwnerOrUnapproved
	}
	approved, err := im.assetRegistry.IsApprovedOrOwner(c, im.engineAddress, owner, nft, tokenId)
	if err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.IsApprovedOrOwner")
		return err
	}
	if !approved {
		return domain.ErrNotOwnerOrUnapproved
	}

	auc := &auction.Auction{
		Owner:        owner.ToLower(),
		Nft:          nft.ToLower(),
		TokenId:      tokenId,
		PayToken:     payToken.ToLower(),
		ReservePrice: reservePrice,
		StartTime:    startTime,
		EndTime:      endTime,
	}
	if err := im.auctionRepo.Upsert(c, auc); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.Upsert")
		return err
	}
	// a fresh auction starts unsettled, even when a prior auction for the
	// same asset was resulted
	if err := im.auctionRepo.SetResulted(c, id, false); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.SetResulted")
		return err
	}

	im.publish(domain.TopicAuctionCreated, domain.AuctionCreatedEvent{
		Nft:          auc.Nft,
		TokenId:      auc.TokenId,
		Owner:        auc.Owner,
		PayToken:     auc.PayToken,
		ReservePrice: reservePrice.String(),
		StartTime:    startTime,
		EndTime:      endTime,
	})
	return nil
}

func (im *impl) PlaceBid(c ctx.Ctx, bidder, nft domain.Address, tokenId domain.TokenId, attached *big.Int) error {
	return im.placeBid(c, bidder, nft, tokenId, payment.Medium{Kind: payment.MediumNative, Token: domain.EmptyAddress}, attached, attached)
}

func (im *impl) PlaceBidWithToken(c ctx.Ctx, bidder, nft domain.Address, tokenId domain.TokenId, amount *big.Int) error {
	return im.placeBid(c, bidder, nft, tokenId, payment.Medium{Kind: payment.MediumToken}, amount, nil)
}

// placeBid escrows the new bid and replaces the outstanding one. The bid
// table already points at the new bidder before the superseded bidder is
// refunded, so exactly one escrowed bid is observable at every point.
func (im *impl) placeBid(c ctx.Ctx, bidder, nft domain.Address, tokenId domain.TokenId, medium payment.Medium, amount, attached *big.Int) error {
	if amount == nil || amount.Sign() < 1 {
		return domain.ErrBidTooLow
	}

	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId}
	auc, err := im.auctionRepo.FindOne(c, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAuctionNotLive
		}
		return err
	}

	if medium.IsNative() != auc.PayToken.IsEmpty() {
		return domain.ErrPayTokenMismatch
	}
	if !medium.IsNative() {
		medium.Token = auc.PayToken
	}

	now := domain.UnixTime(im.now().Unix())
	if now < auc.StartTime || now >= auc.EndTime {
		return domain.ErrAuctionNotLive
	}

	prev, err := im.bidRepo.FindOne(c, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	// first bid clears the reserve; later bids clear the outstanding bid
	// plus the minimum increment. both bounds are inclusive.
	minBid := domain.CloneAmount(auc.ReservePrice)
	if prev != nil {
		step := new(big.Int).Add(prev.Amount, im.minIncrement)
		if step.Cmp(minBid) > 0 {
			minBid = step
		}
	}
	if amount.Cmp(minBid) < 0 {
		return domain.ErrBidTooLow
	}

	if err := im.payment.Collect(c, bidder, medium, amount, attached); err != nil {
		return err
	}

	bid := &auction.Bid{
		Nft:     id.Nft,
		TokenId: id.TokenId,
		Bidder:  bidder.ToLower(),
		Amount:  amount,
	}
	if err := im.bidRepo.Upsert(c, bid); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to bidRepo.Upsert")
		im.refund(c, bidder, medium, amount)
		return err
	}

	if prev != nil {
		if err := im.payment.Disburse(c, prev.Bidder, medium, prev.Amount); err != nil {
			ctxWithItem(c, nft, tokenId).WithFields(log.Fields{
				"err":    err,
				"bidder": prev.Bidder,
			}).Error("failed to refund outbid bidder")
			if rerr := im.bidRepo.Upsert(c, prev); rerr != nil {
				ctxWithItem(c, nft, tokenId).WithField("err", rerr).Error("failed to restore bid")
			}
			im.refund(c, bidder, medium, amount)
			return domain.ErrTransferFailed
		}
	}

	im.publish(domain.TopicBidPlaced, domain.BidPlacedEvent{
		Nft:     bid.Nft,
		TokenId: bid.TokenId,
		Bidder:  bid.Bidder,
		Amount:  amount.String(),
	})
	if prev != nil {
		im.publish(domain.TopicBidRefunded, domain.BidRefundedEvent{
			Nft:     prev.Nft,
			TokenId: prev.TokenId,
			Bidder:  prev.Bidder,
			Amount:  prev.Amount.String(),
		})
	}
	return nil
}

func (im *impl) refund(c ctx.Ctx, bidder domain.Address, medium payment.Medium, amount *big.Int) {
	if err := im.payment.Disburse(c, bidder, medium, amount); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"bidder": bidder,
		}).Error("failed to refund bidder")
	}
}

func (im *impl) ResultAuction(c ctx.Ctx, caller, nft domain.Address, tokenId domain.TokenId) error {
	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId}
	if resulted, err := im.auctionRepo.IsResulted(c, id); err != nil {
		return err
	} else if resulted {
		return domain.ErrAlreadyResulted
	}
	auc, err := im.auctionRepo.FindOne(c, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if domain.UnixTime(im.now().Unix()) < auc.EndTime {
		return domain.ErrAuctionNotLive
	}

	bid, err := im.bidRepo.FindOne(c, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if !auc.Owner.Equals(caller) && (bid == nil || !bid.Bidder.Equals(caller)) {
		return domain.ErrNotAuthorized
	}

	if bid == nil || bid.Amount.Cmp(auc.ReservePrice) < 0 {
		// reserve never met: the auction closes with no winner, the asset
		// stays with its owner and no funds move. an escrowed bid below the
		// reserve cannot normally exist, but it must never be stranded.
		if bid != nil {
			if err := im.bidRepo.Remove(c, id); err != nil {
				ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to bidRepo.Remove")
				return err
			}
			medium := payment.MediumOf(auc.PayToken)
			if err := im.payment.Disburse(c, bid.Bidder, medium, bid.Amount); err != nil {
				ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to refund bidder")
				im.restoreBid(c, bid)
				return domain.ErrTransferFailed
			}
			im.publish(domain.TopicBidRefunded, domain.BidRefundedEvent{
				Nft:     id.Nft,
				TokenId: id.TokenId,
				Bidder:  bid.Bidder,
				Amount:  bid.Amount.String(),
			})
		}
		if err := im.auctionRepo.Remove(c, id); err != nil {
			ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.Remove")
			return err
		}
		im.publish(domain.TopicAuctionCancelled, domain.AuctionCancelledEvent{
			Nft:     id.Nft,
			TokenId: id.TokenId,
		})
		return nil
	}

	medium := payment.MediumOf(auc.PayToken)

	// the resulted marker, the record clearing and the bid removal all land
	// before any value leaves custody; a re-entrant call can only observe
	// the settled auction
	if err := im.auctionRepo.SetResulted(c, id, true); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.SetResulted")
		return err
	}
	if err := im.auctionRepo.Remove(c, id); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.Remove")
		im.unmarkResulted(c, id)
		return err
	}
	if err := im.bidRepo.Remove(c, id); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to bidRepo.Remove")
		im.restoreAuction(c, auc)
		im.unmarkResulted(c, id)
		return err
	}

	if err := im.assetRegistry.Transfer(c, auc.Owner, bid.Bidder, auc.Nft, auc.TokenId, 1); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to assetRegistry.Transfer")
		im.restoreAuction(c, auc)
		im.restoreBid(c, bid)
		im.unmarkResulted(c, id)
		return domain.ErrTransferFailed
	}

	// the platform takes its cut of the amount above the reserve; the owner
	// receives the rest of the winning bid
	aboveReserve := new(big.Int).Sub(bid.Amount, auc.ReservePrice)
	feeCut, _ := im.feePolicy.Split(aboveReserve)
	proceeds := new(big.Int).Sub(bid.Amount, feeCut)

	payouts := []payment.Payout{
		{Payee: im.feePolicy.FeeRecipient(), Amount: feeCut},
		{Payee: auc.Owner, Amount: proceeds},
	}
	if err := im.payment.Settle(c, medium, payouts); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to payment.Settle")
		if terr := im.assetRegistry.Transfer(c, bid.Bidder, auc.Owner, auc.Nft, auc.TokenId, 1); terr != nil {
			ctxWithItem(c, nft, tokenId).WithField("err", terr).Error("failed to revert assetRegistry.Transfer")
		}
		im.restoreAuction(c, auc)
		im.restoreBid(c, bid)
		im.unmarkResulted(c, id)
		return domain.ErrTransferFailed
	}

	im.publish(domain.TopicAuctionResulted, domain.AuctionResultedEvent{
		Nft:        auc.Nft,
		TokenId:    auc.TokenId,
		Winner:     bid.Bidder,
		PayToken:   auc.PayToken,
		WinningBid: bid.Amount.String(),
	})
	return nil
}

func (im *impl) restoreAuction(c ctx.Ctx, auc *auction.Auction) {
	if err := im.auctionRepo.Upsert(c, auc); err != nil {
		ctxWithItem(c, auc.Nft, auc.TokenId).WithField("err", err).Error("failed to restore auction")
	}
}

func (im *impl) restoreBid(c ctx.Ctx, bid *auction.Bid) {
	if err := im.bidRepo.Upsert(c, bid); err != nil {
		ctxWithItem(c, bid.Nft, bid.TokenId).WithField("err", err).Error("failed to restore bid")
	}
}

func (im *impl) unmarkResulted(c ctx.Ctx, id auction.AuctionId) {
	if err := im.auctionRepo.SetResulted(c, id, false); err != nil {
		ctxWithItem(c, id.Nft, id.TokenId).WithField("err", err).Error("failed to clear resulted marker")
	}
}

func (im *impl) CancelAuction(c ctx.Ctx, caller, nft domain.Address, tokenId domain.TokenId) error {
	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	id := auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId}
	auc, err := im.auctionRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !auc.Owner.Equals(caller) {
		return domain.ErrNotAuthorized
	}

	if _, err := im.bidRepo.FindOne(c, id); err == nil {
		return domain.ErrBidExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := im.auctionRepo.Remove(c, id); err != nil {
		ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.Remove")
		return err
	}

	im.publish(domain.TopicAuctionCancelled, domain.AuctionCancelledEvent{
		Nft:     id.Nft,
		TokenId: id.TokenId,
	})
	return nil
}

func (im *impl) GetAuction(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (*auction.Auction, error) {
	auc, err := im.auctionRepo.FindOne(c, auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to auctionRepo.FindOne")
		}
		return nil, err
	}
	return auc, nil
}

func (im *impl) GetAuctions(c ctx.Ctx) ([]*auction.Auction, error) {
	aucs, err := im.auctionRepo.FindAll(c)
	if err != nil {
		c.WithField("err", err).Error("failed to auctionRepo.FindAll")
		return nil, err
	}
	return aucs, nil
}

func (im *impl) GetHighestBid(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (*auction.Bid, error) {
	bid, err := im.bidRepo.FindOne(c, auction.AuctionId{Nft: nft.ToLower(), TokenId: tokenId})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			ctxWithItem(c, nft, tokenId).WithField("err", err).Error("failed to bidRepo.FindOne")
		}
		return nil, err
	}
	return bid, nil
}

func (im *impl) UpdateMinBidIncrement(c ctx.Ctx, caller domain.Address, increment *big.Int) error {
	if !im.feePolicy.IsOperator(caller) {
		return domain.ErrNotAuthorized
	}
	if increment == nil || increment.Sign() < 0 {
		return domain.ErrBadParamInput
	}

	im.settleLock.Lock()
	defer im.settleLock.Unlock()

	im.minIncrement = domain.CloneAmount(increment)
	return nil
}
