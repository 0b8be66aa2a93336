package marketplace

import (
	"math/big"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

// Listing is an open fixed-price offer, keyed by (nft, tokenId, owner).
// A listing with Quantity 0 does not exist; repositories never store one.
type Listing struct {
	Owner        domain.Address  `json:"owner"`
	Nft          domain.Address  `json:"nft"`
	TokenId      domain.TokenId  `json:"tokenId"`
	Quantity     int64           `json:"quantity"`
	PayToken     domain.Address  `json:"payToken"`
	PricePerItem *big.Int        `json:"pricePerItem"`
	StartingTime domain.UnixTime `json:"startingTime"`
}

func (l *Listing) ToId() ListingId {
	return ListingId{
		Nft:     l.Nft,
		TokenId: l.TokenId,
		Owner:   l.Owner,
	}
}

// Zero is the canonical absent record: quantity 0, null pay token, price 0,
// starting time 0. Reading a never-created and a fully-sold listing is
// indistinguishable.
func Zero(nft domain.Address, tokenId domain.TokenId, owner domain.Address) *Listing {
	return &Listing{
		Owner:        owner.ToLower(),
		Nft:          nft.ToLower(),
		TokenId:      tokenId,
		Quantity:     0,
		PayToken:     domain.EmptyAddress,
		PricePerItem: new(big.Int),
		StartingTime: 0,
	}
}

type ListingId struct {
	Nft     domain.Address `json:"nft"`
	TokenId domain.TokenId `json:"tokenId"`
	Owner   domain.Address `json:"owner"`
}

type findAllOptions struct {
	Owner    *domain.Address
	Nft      *domain.Address
	PayToken *domain.Address
}

type FindAllOptions func(*findAllOptions) error

func GetFindAllOptions(opts ...FindAllOptions) (findAllOptions, error) {
	res := findAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithOwner(owner domain.Address) FindAllOptions {
	return func(options *findAllOptions) error {
		options.Owner = owner.ToLowerPtr()
		return nil
	}
}

func WithNft(nft domain.Address) FindAllOptions {
	return func(options *findAllOptions) error {
		options.Nft = nft.ToLowerPtr()
		return nil
	}
}

func WithPayToken(payToken domain.Address) FindAllOptions {
	return func(options *findAllOptions) error {
		options.PayToken = payToken.ToLowerPtr()
		return nil
	}
}

type Repo interface {
	// FindOne returns domain.ErrNotFound for absent listings.
	FindOne(c ctx.Ctx, id ListingId) (*Listing, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptions) ([]*Listing, error)
	Upsert(c ctx.Ctx, listing *Listing) error
	Remove(c ctx.Ctx, id ListingId) error
}

type UseCase interface {
	// ListItem creates a listing. No funds move.
	ListItem(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId, quantity int64, payToken domain.Address, pricePerItem *big.Int, startingTime domain.UnixTime) error

	// UpdateListing changes pay token and unit price of a live listing.
	UpdateListing(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId, newPayToken domain.Address, newPrice *big.Int) error

	// CancelListing zeroes a live listing.
	CancelListing(c ctx.Ctx, seller, nft domain.Address, tokenId domain.TokenId) error

	// BuyItem settles a native-currency purchase. attached is the value sent
	// with the call; any excess over the sale total returns to the buyer.
	BuyItem(c ctx.Ctx, buyer, nft domain.Address, tokenId domain.TokenId, seller domain.Address, attached *big.Int) error

	// BuyItemWithToken settles a purchase in the listing's pay token.
	BuyItemWithToken(c ctx.Ctx, buyer, nft domain.Address, tokenId domain.TokenId, payToken, seller domain.Address) error

	// GetListing returns the zero-valued record for absent listings.
	GetListing(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId, seller domain.Address) (*Listing, error)

	GetListings(c ctx.Ctx, opts ...FindAllOptions) ([]*Listing, error)
}
