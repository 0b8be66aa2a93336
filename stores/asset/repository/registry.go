package repository

import (
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/asset"
)

// Registry extends the engine's ownership port with the issuing and approval
// operations the port itself does not need. Minting rules live outside this
// system; Mint exists so deployments and tests can seed ownership.
type Registry interface {
	asset.Registry

	Mint(c ctx.Ctx, owner, nft domain.Address, tokenId domain.TokenId, quantity int64) error
	SetApprovalForAll(c ctx.Ctx, owner, operator domain.Address, approved bool) error
}

type assetKey struct {
	nft     domain.Address
	tokenId domain.TokenId
}

type impl struct {
	mu sync.Mutex

	// holdings[asset][holder] > 0 always; zero balances are deleted
	holdings map[assetKey]map[domain.Address]int64
	// approvals[owner][operator]
	approvals map[domain.Address]map[domain.Address]bool
}

func New() Registry {
	return &impl{
		holdings:  map[assetKey]map[domain.Address]int64{},
		approvals: map[domain.Address]map[domain.Address]bool{},
	}
}

func (im *impl) Mint(c ctx.Ctx, owner, nft domain.Address, tokenId domain.TokenId, quantity int64) error {
	if quantity < 1 || owner.IsEmpty() {
		return domain.ErrBadParamInput
	}
	key := assetKey{nft.ToLower(), tokenId}
	owner = owner.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.holdings[key] == nil {
		im.holdings[key] = map[domain.Address]int64{}
	}
	im.holdings[key][owner] += quantity
	return nil
}

func (im *impl) SetApprovalForAll(c ctx.Ctx, owner, operator domain.Address, approved bool) error {
	owner = owner.ToLower()
	operator = operator.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.approvals[owner] == nil {
		im.approvals[owner] = map[domain.Address]bool{}
	}
	im.approvals[owner][operator] = approved
	return nil
}

func (im *impl) OwnerOf(c ctx.Ctx, nft domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	holders := im.holdings[assetKey{nft.ToLower(), tokenId}]
	if len(holders) != 1 {
		// multi-holder editions have no single owner to report
		return "", domain.ErrNotFound
	}
	for holder := range holders {
		return holder, nil
	}
	return "", domain.ErrNotFound
}

func (im *impl) BalanceOf(c ctx.Ctx, holder, nft domain.Address, tokenId domain.TokenId) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	return im.holdings[assetKey{nft.ToLower(), tokenId}][holder.ToLower()], nil
}

func (im *impl) IsApprovedOrOwner(c ctx.Ctx, operator, caller, nft domain.Address, tokenId domain.TokenId) (bool, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	caller = caller.ToLower()
	if im.holdings[assetKey{nft.ToLower(), tokenId}][caller] < 1 {
		return false, nil
	}
	return im.approvals[caller][operator.ToLower()], nil
}

func (im *impl) Transfer(c ctx.Ctx, from, to, nft domain.Address, tokenId domain.TokenId, quantity int64) error {
	if quantity < 1 || to.IsEmpty() {
		return domain.ErrTransferFailed
	}
	key := assetKey{nft.ToLower(), tokenId}
	from = from.ToLower()
	to = to.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	holders := im.holdings[key]
	if holders[from] < quantity {
		return domain.ErrTransferFailed
	}

	holders[from] -= quantity
	if holders[from] == 0 {
		delete(holders, from)
	}
	holders[to] += quantity
	return nil
}
