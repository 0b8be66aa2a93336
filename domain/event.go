package domain

// Event topics published on the process event bus. Every settlement operation
// publishes after its state is committed, never in the middle of one.
const (
	TopicListed           = "marketplace:listed"
	TopicListingUpdated   = "marketplace:listing-updated"
	TopicListingCanceled  = "marketplace:listing-canceled"
	TopicItemSold         = "marketplace:item-sold"
	TopicAuctionCreated   = "auction:created"
	TopicBidPlaced        = "auction:bid-placed"
	TopicBidRefunded      = "auction:bid-refunded"
	TopicAuctionResulted  = "auction:resulted"
	TopicAuctionCancelled = "auction:cancelled"
)

type ListedEvent struct {
	Seller       Address  `json:"seller"`
	Nft          Address  `json:"nft"`
	TokenId      TokenId  `json:"tokenId"`
	Quantity     int64    `json:"quantity"`
	PayToken     Address  `json:"payToken"`
	PricePerItem string   `json:"pricePerItem"`
	StartingTime UnixTime `json:"startingTime"`
}

type ListingUpdatedEvent struct {
	Seller       Address `json:"seller"`
	Nft          Address `json:"nft"`
	TokenId      TokenId `json:"tokenId"`
	PayToken     Address `json:"payToken"`
	PricePerItem string  `json:"pricePerItem"`
}

type ListingCanceledEvent struct {
	Seller  Address `json:"seller"`
	Nft     Address `json:"nft"`
	TokenId TokenId `json:"tokenId"`
}

type ItemSoldEvent struct {
	Seller       Address `json:"seller"`
	Buyer        Address `json:"buyer"`
	Nft          Address `json:"nft"`
	TokenId      TokenId `json:"tokenId"`
	Quantity     int64   `json:"quantity"`
	PayToken     Address `json:"payToken"`
	PricePerItem string  `json:"pricePerItem"`
}

type AuctionCreatedEvent struct {
	Nft          Address  `json:"nft"`
	TokenId      TokenId  `json:"tokenId"`
	Owner        Address  `json:"owner"`
	PayToken     Address  `json:"payToken"`
	ReservePrice string   `json:"reservePrice"`
	StartTime    UnixTime `json:"startTime"`
	EndTime      UnixTime `json:"endTime"`
}

type BidPlacedEvent struct {
	Nft     Address `json:"nft"`
	TokenId TokenId `json:"tokenId"`
	Bidder  Address `json:"bidder"`
	Amount  string  `json:"amount"`
}

type BidRefundedEvent struct {
	Nft     Address `json:"nft"`
	TokenId TokenId `json:"tokenId"`
	Bidder  Address `json:"bidder"`
	Amount  string  `json:"amount"`
}

type AuctionResultedEvent struct {
	Nft        Address `json:"nft"`
	TokenId    TokenId `json:"tokenId"`
	Winner     Address `json:"winner"`
	PayToken   Address `json:"payToken"`
	WinningBid string  `json:"winningBid"`
}

type AuctionCancelledEvent struct {
	Nft     Address `json:"nft"`
	TokenId TokenId `json:"tokenId"`
}
