package usecase

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/auction"
	"github.com/octans/marketplace/domain/fee"
	"github.com/octans/marketplace/domain/payment"
	"github.com/octans/marketplace/service/ledger"
	assetRepository "github.com/octans/marketplace/stores/asset/repository"
	"github.com/octans/marketplace/stores/auction/repository"
	paytokenRepository "github.com/octans/marketplace/stores/paytoken/repository"
)

var (
	mockCtx = ctx.Background()

	owner     = domain.Address("0x0000000000000000000000000000000000000a01")
	bidder1   = domain.Address("0x0000000000000000000000000000000000000b01")
	bidder2   = domain.Address("0x0000000000000000000000000000000000000b02")
	bidder3   = domain.Address("0x0000000000000000000000000000000000000b03")
	recipient = domain.Address("0x000000000000000000000000000000000000fee5")
	operator  = domain.Address("0x0000000000000000000000000000000000000ade")
	engine    = domain.Address("0x00000000000000000000000000000000000e9919")
	nft       = domain.Address("0x00000000000000000000000000000000000001c7")
	usdx      = domain.Address("0x0000000000000000000000000000000000055d12")

	tokenId = domain.TokenId("1")
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// units with two extra fractional digits, e.g. centiUnits(2975) = 29.75
func centiUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil))
}

type auctionSuite struct {
	suite.Suite

	registry assetRepository.Registry
	ledger   ledger.Service
	auctions auction.AuctionRepo
	bids     auction.BidRepo
	clock    time.Time

	im auction.UseCase
}

func (s *auctionSuite) SetupTest() {
	s.registry = assetRepository.New()
	s.ledger = ledger.New()
	s.auctions = repository.NewAuctionRepo()
	s.bids = repository.NewBidRepo()
	s.clock = time.Unix(1000, 0)

	paytokens := paytokenRepository.NewPayTokenRepo()
	s.Require().NoError(paytokens.Upsert(mockCtx, &domain.PayToken{
		Name:     "USD X",
		Symbol:   "USDX",
		Decimals: 18,
		Address:  usdx,
	}))

	policy, err := fee.NewPolicy(250, recipient, operator)
	s.Require().NoError(err)

	s.im = New(&AuctionUseCaseCfg{
		AuctionRepo:     s.auctions,
		BidRepo:         s.bids,
		PaytokenRepo:    paytokens,
		AssetRegistry:   s.registry,
		Payment:         s.ledger,
		FeePolicy:       policy,
		EngineAddress:   engine,
		MinBidIncrement: big.NewInt(1),
		SettleLock:      &sync.Mutex{},
		Now:             func() time.Time { return s.clock },
	})
}

func TestAuctionSuite(t *testing.T) {
	suite.Run(t, new(auctionSuite))
}

func (s *auctionSuite) seedOwner() {
	s.Require().NoError(s.registry.Mint(mockCtx, owner, nft, tokenId, 1))
	s.Require().NoError(s.registry.SetApprovalForAll(mockCtx, owner, engine, true))
}

func (s *auctionSuite) fundToken(account domain.Address, amount *big.Int) {
	s.Require().NoError(s.ledger.Credit(mockCtx, account, payment.MediumOf(usdx), amount))
	s.Require().NoError(s.ledger.Approve(mockCtx, account, usdx, amount))
}

func (s *auctionSuite) tokenBalance(account domain.Address) string {
	v, err := s.ledger.BalanceOf(mockCtx, account, payment.MediumOf(usdx))
	s.Require().NoError(err)
	return v.String()
}

// createAuction opens a token auction with reserve 20, running [1100, 2000)
func (s *auctionSuite) createAuction() {
	s.Require().NoError(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 1100, 2000))
	s.clock = time.Unix(1100, 0)
}

func (s *auctionSuite) TestCreateAuctionValidation() {
	s.seedOwner()

	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, nil, 1100, 2000), domain.ErrInvalidPrice)
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, big.NewInt(-1), 1100, 2000), domain.ErrInvalidPrice)

	// start at or after end, or in the past
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 2000, 2000), domain.ErrInvalidTimeWindow)
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 900, 2000), domain.ErrInvalidTimeWindow)

	unknown := domain.Address("0x000000000000000000000000000000000000dead")
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, unknown, units(20), 1100, 2000), domain.ErrInvalidPayToken)

	// a non-owner cannot auction the asset
	s.ErrorIs(s.im.CreateAuction(mockCtx, bidder1, nft, tokenId, usdx, units(20), 1100, 2000), domain.ErrNotOwnerOrUnapproved)

	s.NoError(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 1100, 2000))
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 1100, 2000), domain.ErrAlreadyAuctioned)
}

func (s *auctionSuite) TestCreateAuctionWithoutApproval() {
	s.Require().NoError(s.registry.Mint(mockCtx, owner, nft, tokenId, 1))
	s.ErrorIs(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 1100, 2000), domain.ErrNotOwnerOrUnapproved)
}

func (s *auctionSuite) TestPlaceBidEscrowAndRefund() {
	s.seedOwner()
	s.createAuction()

	s.fundToken(bidder1, units(20))
	s.fundToken(bidder2, units(25))
	s.fundToken(bidder3, units(30))

	// no bid below the reserve
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(19)), domain.ErrBidTooLow)

	// reserve itself is acceptable as the first bid
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)))
	s.Equal("0", s.tokenBalance(bidder1))

	// outbidding needs at least the increment over the standing bid
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(20)), domain.ErrBidTooLow)
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(25)))

	// the outbid bidder got the escrow back
	s.Equal(units(20).String(), s.tokenBalance(bidder1))
	s.Equal("0", s.tokenBalance(bidder2))

	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder3, nft, tokenId, units(30)))
	s.Equal(units(25).String(), s.tokenBalance(bidder2))

	// exactly one live escrowed bid
	bid, err := s.im.GetHighestBid(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder3, bid.Bidder)
	s.Equal(units(30).String(), bid.Amount.String())

	custody, err := s.ledger.CustodyBalance(mockCtx, payment.MediumOf(usdx))
	s.NoError(err)
	s.Equal(units(30).String(), custody.String())
}

func (s *auctionSuite) TestPlaceBidTimeWindow() {
	s.seedOwner()
	s.Require().NoError(s.im.CreateAuction(mockCtx, owner, nft, tokenId, usdx, units(20), 1100, 2000))
	s.fundToken(bidder1, units(20))

	// before start
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)), domain.ErrAuctionNotLive)

	// at end
	s.clock = time.Unix(2000, 0)
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)), domain.ErrAuctionNotLive)

	// no auction at all
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, "404", units(20)), domain.ErrAuctionNotLive)
}

func (s *auctionSuite) TestPlaceBidMediumMismatch() {
	s.seedOwner()
	s.createAuction()
	s.Require().NoError(s.ledger.Credit(mockCtx, bidder1, payment.MediumOf(domain.EmptyAddress), units(20)))

	// native bid on a token auction
	s.ErrorIs(s.im.PlaceBid(mockCtx, bidder1, nft, tokenId, units(20)), domain.ErrPayTokenMismatch)
}

func (s *auctionSuite) TestPlaceBidInsufficientEscrowLeavesBidStanding() {
	s.seedOwner()
	s.createAuction()
	s.fundToken(bidder1, units(20))
	s.fundToken(bidder2, units(10))

	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)))
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(25)), domain.ErrInsufficientAllowance)

	bid, err := s.im.GetHighestBid(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder1, bid.Bidder)
}

func (s *auctionSuite) TestResultAuction() {
	s.seedOwner()
	s.createAuction()
	s.fundToken(bidder1, units(25))
	s.fundToken(bidder2, units(30))

	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(25)))
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(30)))

	// not before the end time
	s.ErrorIs(s.im.ResultAuction(mockCtx, owner, nft, tokenId), domain.ErrAuctionNotLive)

	s.clock = time.Unix(2000, 0)

	// only the owner or the winning bidder may settle
	s.ErrorIs(s.im.ResultAuction(mockCtx, bidder1, nft, tokenId), domain.ErrNotAuthorized)

	s.NoError(s.im.ResultAuction(mockCtx, owner, nft, tokenId))

	// fee is 2.5% of the amount above the 20 reserve: 0.25 of 10;
	// the owner receives 30 - 0.25 = 29.75
	s.Equal(centiUnits(25).String(), s.tokenBalance(recipient))
	s.Equal(centiUnits(2975).String(), s.tokenBalance(owner))

	newOwner, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder2, newOwner)

	// escrow fully drained
	custody, err := s.ledger.CustodyBalance(mockCtx, payment.MediumOf(usdx))
	s.NoError(err)
	s.Equal("0", custody.String())

	// the settled auction cannot be resulted again
	s.ErrorIs(s.im.ResultAuction(mockCtx, owner, nft, tokenId), domain.ErrAlreadyResulted)

	_, err = s.im.GetHighestBid(mockCtx, nft, tokenId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *auctionSuite) TestResultAuctionClearsStateForNewAuction() {
	s.seedOwner()
	s.createAuction()
	s.fundToken(bidder1, units(25))
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(25)))

	s.clock = time.Unix(2000, 0)
	s.NoError(s.im.ResultAuction(mockCtx, owner, nft, tokenId))

	// settlement cleared the auction record; the new owner can put the
	// asset up for auction again
	_, err := s.im.GetAuction(mockCtx, nft, tokenId)
	s.ErrorIs(err, domain.ErrNotFound)

	s.Require().NoError(s.registry.SetApprovalForAll(mockCtx, bidder1, engine, true))
	s.NoError(s.im.CreateAuction(mockCtx, bidder1, nft, tokenId, usdx, units(40), 2100, 3000))

	auc, err := s.im.GetAuction(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder1, auc.Owner)

	// the fresh auction settles in its own right
	s.clock = time.Unix(2100, 0)
	s.fundToken(bidder2, units(40))
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(40)))

	s.clock = time.Unix(3000, 0)
	s.NoError(s.im.ResultAuction(mockCtx, bidder1, nft, tokenId))

	current, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder2, current)
}

func (s *auctionSuite) TestGetAuctions() {
	aucs, err := s.im.GetAuctions(mockCtx)
	s.NoError(err)
	s.Len(aucs, 0)

	s.seedOwner()
	s.createAuction()

	aucs, err = s.im.GetAuctions(mockCtx)
	s.NoError(err)
	s.Len(aucs, 1)
	s.Equal(owner, aucs[0].Owner)
}

func (s *auctionSuite) TestResultAuctionByWinner() {
	s.seedOwner()
	s.createAuction()
	s.fundToken(bidder1, units(25))
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(25)))

	s.clock = time.Unix(2000, 0)
	s.NoError(s.im.ResultAuction(mockCtx, bidder1, nft, tokenId))

	newOwner, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(bidder1, newOwner)
}

func (s *auctionSuite) TestResultAuctionNoBid() {
	s.seedOwner()
	s.createAuction()
	s.clock = time.Unix(2000, 0)

	s.NoError(s.im.ResultAuction(mockCtx, owner, nft, tokenId))

	// the asset stays with the owner and the auction record is gone
	current, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(owner, current)

	_, err = s.im.GetAuction(mockCtx, nft, tokenId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *auctionSuite) TestResultAuctionUnknown() {
	s.ErrorIs(s.im.ResultAuction(mockCtx, owner, nft, tokenId), domain.ErrNotFound)
}

func (s *auctionSuite) TestCancelAuction() {
	s.seedOwner()
	s.createAuction()

	s.ErrorIs(s.im.CancelAuction(mockCtx, bidder1, nft, tokenId), domain.ErrNotAuthorized)

	s.fundToken(bidder1, units(20))
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)))

	// a live bid blocks cancellation
	s.ErrorIs(s.im.CancelAuction(mockCtx, owner, nft, tokenId), domain.ErrBidExists)
}

func (s *auctionSuite) TestCancelAuctionWithoutBid() {
	s.seedOwner()
	s.createAuction()

	s.NoError(s.im.CancelAuction(mockCtx, owner, nft, tokenId))
	_, err := s.im.GetAuction(mockCtx, nft, tokenId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *auctionSuite) TestUpdateMinBidIncrement() {
	s.seedOwner()
	s.createAuction()
	s.fundToken(bidder1, units(20))
	s.fundToken(bidder2, units(30))

	s.ErrorIs(s.im.UpdateMinBidIncrement(mockCtx, bidder1, units(5)), domain.ErrNotAuthorized)
	s.NoError(s.im.UpdateMinBidIncrement(mockCtx, operator, units(5)))

	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(20)))

	// 24 < 20 + 5
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(24)), domain.ErrBidTooLow)
	s.NoError(s.im.PlaceBidWithToken(mockCtx, bidder2, nft, tokenId, units(25)))
}

func (s *auctionSuite) TestNativeAuctionEndToEnd() {
	s.seedOwner()
	s.Require().NoError(s.im.CreateAuction(mockCtx, owner, nft, tokenId, domain.EmptyAddress, units(20), 1100, 2000))
	s.clock = time.Unix(1100, 0)

	native := payment.MediumOf(domain.EmptyAddress)
	s.Require().NoError(s.ledger.Credit(mockCtx, bidder1, native, units(30)))

	// token bid on a native auction
	s.ErrorIs(s.im.PlaceBidWithToken(mockCtx, bidder1, nft, tokenId, units(30)), domain.ErrPayTokenMismatch)

	s.NoError(s.im.PlaceBid(mockCtx, bidder1, nft, tokenId, units(30)))

	s.clock = time.Unix(2000, 0)
	s.NoError(s.im.ResultAuction(mockCtx, owner, nft, tokenId))

	ownerBalance, err := s.ledger.BalanceOf(mockCtx, owner, native)
	s.NoError(err)
	s.Equal(centiUnits(2975).String(), ownerBalance.String())

	feeBalance, err := s.ledger.BalanceOf(mockCtx, recipient, native)
	s.NoError(err)
	s.Equal(centiUnits(25).String(), feeBalance.String())
}
