package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/marketplace"
)

var (
	mockCtx = ctx.Background()

	alice = domain.Address("0x000000000000000000000000000000000000A11C")
	bob   = domain.Address("0x0000000000000000000000000000000000000b0b")
	nft   = domain.Address("0x00000000000000000000000000000000000001c7")
	token = domain.Address("0x0000000000000000000000000000000000055d12")
)

type listingRepoSuite struct {
	suite.Suite
	im marketplace.Repo
}

func (s *listingRepoSuite) SetupTest() {
	s.im = NewListingRepo()
}

func TestListingRepoSuite(t *testing.T) {
	suite.Run(t, new(listingRepoSuite))
}

func (s *listingRepoSuite) listing(owner domain.Address, tokenId domain.TokenId) *marketplace.Listing {
	return &marketplace.Listing{
		Owner:        owner,
		Nft:          nft,
		TokenId:      tokenId,
		Quantity:     1,
		PayToken:     token,
		PricePerItem: big.NewInt(100),
		StartingTime: 0,
	}
}

func (s *listingRepoSuite) TestUpsertAndFindOne() {
	_, err := s.im.FindOne(mockCtx, marketplace.ListingId{Nft: nft, TokenId: "1", Owner: alice})
	s.ErrorIs(err, domain.ErrNotFound)

	s.ErrorIs(s.im.Upsert(mockCtx, nil), domain.ErrBadParamInput)
	s.ErrorIs(s.im.Upsert(mockCtx, &marketplace.Listing{Owner: alice, Nft: nft, TokenId: "1"}), domain.ErrBadParamInput)

	s.NoError(s.im.Upsert(mockCtx, s.listing(alice, "1")))

	// ids are case-insensitive on addresses
	found, err := s.im.FindOne(mockCtx, marketplace.ListingId{Nft: nft, TokenId: "1", Owner: alice.ToLower()})
	s.NoError(err)
	s.Equal(alice.ToLower(), found.Owner)
	s.Equal("100", found.PricePerItem.String())

	// the returned price is a copy
	found.PricePerItem.SetInt64(0)
	again, err := s.im.FindOne(mockCtx, marketplace.ListingId{Nft: nft, TokenId: "1", Owner: alice})
	s.NoError(err)
	s.Equal("100", again.PricePerItem.String())
}

func (s *listingRepoSuite) TestFindAll() {
	s.NoError(s.im.Upsert(mockCtx, s.listing(alice, "1")))
	s.NoError(s.im.Upsert(mockCtx, s.listing(alice, "2")))
	other := s.listing(bob, "3")
	other.PayToken = domain.EmptyAddress
	s.NoError(s.im.Upsert(mockCtx, other))

	all, err := s.im.FindAll(mockCtx)
	s.NoError(err)
	s.Len(all, 3)

	byOwner, err := s.im.FindAll(mockCtx, marketplace.WithOwner(alice))
	s.NoError(err)
	s.Len(byOwner, 2)

	byPayToken, err := s.im.FindAll(mockCtx, marketplace.WithPayToken(token))
	s.NoError(err)
	s.Len(byPayToken, 2)

	byBoth, err := s.im.FindAll(mockCtx, marketplace.WithOwner(bob), marketplace.WithNft(nft))
	s.NoError(err)
	s.Len(byBoth, 1)
}

func (s *listingRepoSuite) TestRemove() {
	id := marketplace.ListingId{Nft: nft, TokenId: "1", Owner: alice}
	s.ErrorIs(s.im.Remove(mockCtx, id), domain.ErrNotFound)

	s.NoError(s.im.Upsert(mockCtx, s.listing(alice, "1")))
	s.NoError(s.im.Remove(mockCtx, id))

	_, err := s.im.FindOne(mockCtx, id)
	s.ErrorIs(err, domain.ErrNotFound)
}
