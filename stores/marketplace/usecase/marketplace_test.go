package usecase

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/fee"
	"github.com/octans/marketplace/domain/marketplace"
	"github.com/octans/marketplace/domain/payment"
	"github.com/octans/marketplace/service/ledger"
	assetRepository "github.com/octans/marketplace/stores/asset/repository"
	"github.com/octans/marketplace/stores/marketplace/repository"
	paytokenRepository "github.com/octans/marketplace/stores/paytoken/repository"
)

var (
	mockCtx = ctx.Background()

	seller    = domain.Address("0x0000000000000000000000000000000000005e11")
	buyer     = domain.Address("0x0000000000000000000000000000000000000b14")
	recipient = domain.Address("0x000000000000000000000000000000000000fee5")
	operator  = domain.Address("0x0000000000000000000000000000000000000ade")
	engine    = domain.Address("0x00000000000000000000000000000000000e9919")
	nft       = domain.Address("0x00000000000000000000000000000000000001c7")
	usdx      = domain.Address("0x0000000000000000000000000000000000055d12")

	tokenId = domain.TokenId("1")
)

// amounts in 18-decimal units
func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type marketplaceSuite struct {
	suite.Suite

	registry assetRepository.Registry
	ledger   ledger.Service
	listings marketplace.Repo
	policy   *fee.Policy
	clock    time.Time

	im marketplace.UseCase
}

func (s *marketplaceSuite) SetupTest() {
	s.registry = assetRepository.New()
	s.ledger = ledger.New()
	s.listings = repository.NewListingRepo()
	s.clock = time.Unix(1000, 0)

	paytokens := paytokenRepository.NewPayTokenRepo()
	s.Require().NoError(paytokens.Upsert(mockCtx, &domain.PayToken{
		Name:     "USD X",
		Symbol:   "USDX",
		Decimals: 18,
		Address:  usdx,
	}))

	policy, err := fee.NewPolicy(500, recipient, operator)
	s.Require().NoError(err)
	s.policy = policy

	s.im = New(&MarketplaceUseCaseCfg{
		ListingRepo:   s.listings,
		PaytokenRepo:  paytokens,
		AssetRegistry: s.registry,
		Payment:       s.ledger,
		FeePolicy:     policy,
		EngineAddress: engine,
		SettleLock:    &sync.Mutex{},
		Now:           func() time.Time { return s.clock },
	})
}

func TestMarketplaceSuite(t *testing.T) {
	suite.Run(t, new(marketplaceSuite))
}

func (s *marketplaceSuite) seedSeller(quantity int64) {
	s.Require().NoError(s.registry.Mint(mockCtx, seller, nft, tokenId, quantity))
	s.Require().NoError(s.registry.SetApprovalForAll(mockCtx, seller, engine, true))
}

func (s *marketplaceSuite) fundToken(account domain.Address, amount *big.Int) {
	s.Require().NoError(s.ledger.Credit(mockCtx, account, payment.MediumOf(usdx), amount))
	s.Require().NoError(s.ledger.Approve(mockCtx, account, usdx, amount))
}

func (s *marketplaceSuite) tokenBalance(account domain.Address) string {
	v, err := s.ledger.BalanceOf(mockCtx, account, payment.MediumOf(usdx))
	s.Require().NoError(err)
	return v.String()
}

func (s *marketplaceSuite) nativeBalance(account domain.Address) string {
	v, err := s.ledger.BalanceOf(mockCtx, account, payment.MediumOf(domain.EmptyAddress))
	s.Require().NoError(err)
	return v.String()
}

func (s *marketplaceSuite) TestListItemValidation() {
	s.seedSeller(1)

	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 0, usdx, units(20), 0), domain.ErrInvalidQuantity)
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, big.NewInt(0), 0), domain.ErrInvalidPrice)
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, nil, 0), domain.ErrInvalidPrice)

	unknown := domain.Address("0x000000000000000000000000000000000000dead")
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, unknown, units(20), 0), domain.ErrInvalidPayToken)

	// more quantity than the seller holds
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 2, usdx, units(20), 0), domain.ErrNotOwnerOrUnapproved)

	// a stranger cannot list the seller's asset
	s.ErrorIs(s.im.ListItem(mockCtx, buyer, nft, tokenId, 1, usdx, units(20), 0), domain.ErrNotOwnerOrUnapproved)

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0), domain.ErrAlreadyListed)
}

func (s *marketplaceSuite) TestListWithoutApproval() {
	s.Require().NoError(s.registry.Mint(mockCtx, seller, nft, tokenId, 1))
	s.ErrorIs(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0), domain.ErrNotOwnerOrUnapproved)
}

func (s *marketplaceSuite) TestUpdateListing() {
	s.seedSeller(1)

	s.ErrorIs(s.im.UpdateListing(mockCtx, seller, nft, tokenId, usdx, units(25)), domain.ErrListingNotActive)

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))
	s.ErrorIs(s.im.UpdateListing(mockCtx, seller, nft, tokenId, usdx, big.NewInt(0)), domain.ErrInvalidPrice)
	s.NoError(s.im.UpdateListing(mockCtx, seller, nft, tokenId, domain.EmptyAddress, units(25)))

	listing, err := s.im.GetListing(mockCtx, nft, tokenId, seller)
	s.NoError(err)
	s.Equal(units(25).String(), listing.PricePerItem.String())
	s.True(listing.PayToken.IsEmpty())
}

func (s *marketplaceSuite) TestCancelListing() {
	s.seedSeller(1)
	s.ErrorIs(s.im.CancelListing(mockCtx, seller, nft, tokenId), domain.ErrListingNotActive)

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))
	s.NoError(s.im.CancelListing(mockCtx, seller, nft, tokenId))

	listing, err := s.im.GetListing(mockCtx, nft, tokenId, seller)
	s.NoError(err)
	s.Equal(int64(0), listing.Quantity)
	s.Equal("0", listing.PricePerItem.String())
}

func (s *marketplaceSuite) TestBuyItemWithToken() {
	s.seedSeller(1)
	s.fundToken(buyer, units(20))

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))

	// pay token of the purchase must match the listing
	s.ErrorIs(s.im.BuyItem(mockCtx, buyer, nft, tokenId, seller, units(20)), domain.ErrInvalidPayToken)

	s.NoError(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller))

	// 5% platform fee on the full sale amount
	s.Equal(units(19).String(), s.tokenBalance(seller))
	s.Equal(units(1).String(), s.tokenBalance(recipient))
	s.Equal("0", s.tokenBalance(buyer))

	owner, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(buyer, owner)

	// the listing is zeroed out by the sale
	listing, err := s.im.GetListing(mockCtx, nft, tokenId, seller)
	s.NoError(err)
	s.Equal(int64(0), listing.Quantity)

	// a second purchase finds no live listing
	s.ErrorIs(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller), domain.ErrListingNotActive)
}

func (s *marketplaceSuite) TestBuyItemNativeWithExcess() {
	s.seedSeller(1)
	s.Require().NoError(s.ledger.Credit(mockCtx, buyer, payment.MediumOf(domain.EmptyAddress), units(30)))

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, domain.EmptyAddress, units(20), 0))

	// attached value below the price
	s.ErrorIs(s.im.BuyItem(mockCtx, buyer, nft, tokenId, seller, units(10)), domain.ErrInsufficientPayment)

	// excess over the price stays with the buyer
	s.NoError(s.im.BuyItem(mockCtx, buyer, nft, tokenId, seller, units(30)))
	s.Equal(units(10).String(), s.nativeBalance(buyer))
	s.Equal(units(19).String(), s.nativeBalance(seller))
	s.Equal(units(1).String(), s.nativeBalance(recipient))
}

func (s *marketplaceSuite) TestBuyQuantityTotal() {
	s.seedSeller(4)
	s.fundToken(buyer, units(80))

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 4, usdx, units(20), 0))
	s.NoError(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller))

	// total = 4 * 20; fee 5% of 80 = 4
	s.Equal(units(76).String(), s.tokenBalance(seller))
	s.Equal(units(4).String(), s.tokenBalance(recipient))

	balance, err := s.registry.BalanceOf(mockCtx, buyer, nft, tokenId)
	s.NoError(err)
	s.Equal(int64(4), balance)
}

func (s *marketplaceSuite) TestBuyBeforeStartingTime() {
	s.seedSeller(1)
	s.fundToken(buyer, units(20))

	start := domain.UnixTime(s.clock.Unix() + 100)
	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), start))
	s.ErrorIs(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller), domain.ErrListingNotActive)

	s.clock = s.clock.Add(101 * time.Second)
	s.NoError(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller))
}

func (s *marketplaceSuite) TestBuyInsufficientFundsLeavesStateIntact() {
	s.seedSeller(1)
	s.fundToken(buyer, units(10))

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))
	s.ErrorIs(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller), domain.ErrInsufficientAllowance)

	// nothing moved
	s.Equal(units(10).String(), s.tokenBalance(buyer))
	listing, err := s.im.GetListing(mockCtx, nft, tokenId, seller)
	s.NoError(err)
	s.Equal(int64(1), listing.Quantity)

	owner, err := s.registry.OwnerOf(mockCtx, nft, tokenId)
	s.NoError(err)
	s.Equal(seller, owner)
}

func (s *marketplaceSuite) TestBuyWhenSellerNoLongerHoldsAsset() {
	s.seedSeller(1)
	s.fundToken(buyer, units(20))

	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))

	// the seller transfers the asset away after listing
	other := domain.Address("0x000000000000000000000000000000000000aaaa")
	s.Require().NoError(s.registry.Transfer(mockCtx, seller, other, nft, tokenId, 1))

	s.ErrorIs(s.im.BuyItemWithToken(mockCtx, buyer, nft, tokenId, usdx, seller), domain.ErrNotOwnerOrUnapproved)
	s.Equal(units(20).String(), s.tokenBalance(buyer))
}

func (s *marketplaceSuite) TestGetListings() {
	s.seedSeller(1)
	s.NoError(s.im.ListItem(mockCtx, seller, nft, tokenId, 1, usdx, units(20), 0))

	all, err := s.im.GetListings(mockCtx)
	s.NoError(err)
	s.Len(all, 1)

	none, err := s.im.GetListings(mockCtx, marketplace.WithOwner(buyer))
	s.NoError(err)
	s.Len(none, 0)
}
