package repository

import (
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/domain"
)

type payTokenRepoImpl struct {
	mu     sync.RWMutex
	tokens map[domain.Address]domain.PayToken
}

func NewPayTokenRepo() domain.PayTokenRepo {
	return &payTokenRepoImpl{
		tokens: map[domain.Address]domain.PayToken{},
	}
}

func (im *payTokenRepoImpl) FindOne(c ctx.Ctx, address domain.Address) (*domain.PayToken, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, ok := im.tokens[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

func (im *payTokenRepoImpl) FindAll(c ctx.Ctx) ([]*domain.PayToken, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	res := make([]*domain.PayToken, 0, len(im.tokens))
	for addr := range im.tokens {
		token := im.tokens[addr]
		res = append(res, &token)
	}
	return res, nil
}

func (im *payTokenRepoImpl) Upsert(c ctx.Ctx, token *domain.PayToken) error {
	if token == nil || token.Address.IsEmpty() {
		return domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	stored := *token
	stored.Address = stored.Address.ToLower()
	im.tokens[stored.Address] = stored
	return nil
}

func (im *payTokenRepoImpl) Remove(c ctx.Ctx, address domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.tokens[address.ToLower()]; !ok {
		return domain.ErrNotFound
	}
	delete(im.tokens, address.ToLower())
	return nil
}
