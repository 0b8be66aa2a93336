// Package ledger is the in-process value ledger backing the payment
// boundary: account balances per medium, allowances granted to the engine,
// and the engine custody account that escrows bids and in-flight sale
// proceeds. Every mutation is all-or-nothing.
package ledger

import (
	"math/big"
	"sync"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/payment"
)

// Service extends the payment boundary with the funding and allowance
// operations accounts use before they can pay.
type Service interface {
	payment.Service

	// Credit adds freshly issued funds to an account.
	Credit(c ctx.Ctx, account domain.Address, medium payment.Medium, amount *big.Int) error

	// Approve grants the engine the right to pull up to amount from owner in
	// the token medium. Replaces any prior allowance.
	Approve(c ctx.Ctx, owner domain.Address, token domain.Address, amount *big.Int) error

	// CustodyBalance reports funds currently held by the engine in the medium.
	CustodyBalance(c ctx.Ctx, medium payment.Medium) (*big.Int, error)
}

type impl struct {
	mu sync.Mutex

	// balances[token][account], native keyed by the empty-address sentinel
	balances map[domain.Address]map[domain.Address]*big.Int
	// allowances[token][owner], granted to the engine
	allowances map[domain.Address]map[domain.Address]*big.Int
	custody    map[domain.Address]*big.Int
}

func New() Service {
	return &impl{
		balances:   map[domain.Address]map[domain.Address]*big.Int{},
		allowances: map[domain.Address]map[domain.Address]*big.Int{},
		custody:    map[domain.Address]*big.Int{},
	}
}

func (im *impl) balanceOf(token, account domain.Address) *big.Int {
	accounts, ok := im.balances[token]
	if !ok {
		return new(big.Int)
	}
	if v, ok := accounts[account]; ok {
		return v
	}
	return new(big.Int)
}

func (im *impl) setBalance(token, account domain.Address, v *big.Int) {
	if im.balances[token] == nil {
		im.balances[token] = map[domain.Address]*big.Int{}
	}
	im.balances[token][account] = v
}

func (im *impl) allowanceOf(token, owner domain.Address) *big.Int {
	owners, ok := im.allowances[token]
	if !ok {
		return new(big.Int)
	}
	if v, ok := owners[owner]; ok {
		return v
	}
	return new(big.Int)
}

func (im *impl) custodyOf(token domain.Address) *big.Int {
	if v, ok := im.custody[token]; ok {
		return v
	}
	return new(big.Int)
}

func (im *impl) Credit(c ctx.Ctx, account domain.Address, medium payment.Medium, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	account = account.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	im.setBalance(medium.Token, account, new(big.Int).Add(im.balanceOf(medium.Token, account), amount))
	return nil
}

func (im *impl) Approve(c ctx.Ctx, owner domain.Address, token domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	if token.IsEmpty() {
		return domain.ErrInvalidPayToken
	}
	owner = owner.ToLower()
	token = token.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.allowances[token] == nil {
		im.allowances[token] = map[domain.Address]*big.Int{}
	}
	im.allowances[token][owner] = domain.CloneAmount(amount)
	return nil
}

func (im *impl) Collect(c ctx.Ctx, payer domain.Address, medium payment.Medium, amount, attached *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	payer = payer.ToLower()

	im.mu.Lock()
	defer im.mu.Unlock()

	if medium.IsNative() {
		// the attached value must cover the charge; the excess never leaves
		// the payer, which is the refund folded into the same operation
		if attached == nil || attached.Cmp(amount) < 0 {
			return domain.ErrInsufficientPayment
		}
		balance := im.balanceOf(medium.Token, payer)
		if balance.Cmp(attached) < 0 {
			return domain.ErrInsufficientFunds
		}
		im.setBalance(medium.Token, payer, new(big.Int).Sub(balance, amount))
	} else {
		allowance := im.allowanceOf(medium.Token, payer)
		if allowance.Cmp(amount) < 0 {
			return domain.ErrInsufficientAllowance
		}
		balance := im.balanceOf(medium.Token, payer)
		if balance.Cmp(amount) < 0 {
			return domain.ErrInsufficientFunds
		}
		im.setBalance(medium.Token, payer, new(big.Int).Sub(balance, amount))
		im.allowances[medium.Token][payer] = new(big.Int).Sub(allowance, amount)
	}

	im.custody[medium.Token] = new(big.Int).Add(im.custodyOf(medium.Token), amount)
	return nil
}

func (im *impl) Disburse(c ctx.Ctx, payee domain.Address, medium payment.Medium, amount *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.disburse(c, payee, medium, amount)
}

func (im *impl) disburse(c ctx.Ctx, payee domain.Address, medium payment.Medium, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || payee.IsEmpty() {
		return domain.ErrTransferFailed
	}
	payee = payee.ToLower()

	held := im.custodyOf(medium.Token)
	if held.Cmp(amount) < 0 {
		// custody can only run short if an engine invariant broke; surface it
		// loudly instead of partially applying
		c.WithFields(log.Fields{
			"token":  medium.Token,
			"held":   held.String(),
			"amount": amount.String(),
		}).Error("custody short on disburse")
		return domain.ErrTransferFailed
	}

	im.custody[medium.Token] = new(big.Int).Sub(held, amount)
	im.setBalance(medium.Token, payee, new(big.Int).Add(im.balanceOf(medium.Token, payee), amount))
	return nil
}

func (im *impl) Settle(c ctx.Ctx, medium payment.Medium, payouts []payment.Payout) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	total := new(big.Int)
	for _, p := range payouts {
		if p.Amount == nil || p.Amount.Sign() < 0 {
			return domain.ErrTransferFailed
		}
		if p.Amount.Sign() > 0 && p.Payee.IsEmpty() {
			return domain.ErrTransferFailed
		}
		total.Add(total, p.Amount)
	}
	if im.custodyOf(medium.Token).Cmp(total) < 0 {
		return domain.ErrTransferFailed
	}

	for _, p := range payouts {
		if p.Amount.Sign() == 0 {
			continue
		}
		if err := im.disburse(c, p.Payee, medium, p.Amount); err != nil {
			// unreachable given the checks above; kept so a future backend
			// with fallible pushes cannot silently half-apply
			return err
		}
	}
	return nil
}

func (im *impl) BalanceOf(c ctx.Ctx, account domain.Address, medium payment.Medium) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return domain.CloneAmount(im.balanceOf(medium.Token, account.ToLower())), nil
}

func (im *impl) CustodyBalance(c ctx.Ctx, medium payment.Medium) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return domain.CloneAmount(im.custodyOf(medium.Token)), nil
}
