package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/base/priceformat"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/payment"
	"github.com/octans/marketplace/middleware"
	"github.com/octans/marketplace/service/ledger"
)

type handler struct {
	ledger    ledger.Service
	formatter priceformat.PriceFormatter
}

// New registers the funding endpoints. Credit and Approve exist so accounts
// can be funded and grant the engine pull rights before trading.
func New(e *echo.Echo, ledger ledger.Service, formatter priceformat.PriceFormatter) {
	h := &handler{ledger, formatter}
	g := e.Group("/ledger")
	g.GET("/balance/:account", h.getBalance, middleware.IsValidAddress("account"))
	g.GET("/custody", h.getCustody)
	g.POST("/credit", h.credit)
	g.POST("/approve", h.approve)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		PayToken domain.Address `query:"payToken"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	account := domain.Address(c.Param("account"))
	balance, err := h.ledger.BalanceOf(ctx, account, payment.MediumOf(p.PayToken))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	display, err := h.formatter.GetDisplayPrice(ctx, p.PayToken, balance)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	type resp struct {
		Account        domain.Address `json:"account"`
		PayToken       domain.Address `json:"payToken"`
		Balance        string         `json:"balance"`
		DisplayBalance string         `json:"displayBalance"`
	}
	return delivery.MakeJsonResp(c, http.StatusOK, resp{
		Account:        account.ToLower(),
		PayToken:       p.PayToken.ToLower(),
		Balance:        balance.String(),
		DisplayBalance: display,
	})
}

func (h *handler) getCustody(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		PayToken domain.Address `query:"payToken"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	balance, err := h.ledger.CustodyBalance(ctx, payment.MediumOf(p.PayToken))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance.String())
}

func (h *handler) credit(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Account  domain.Address `json:"account" validate:"required,eth_addr"`
		PayToken domain.Address `json:"payToken"`
		Amount   string         `json:"amount" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	amount, err := domain.ParseAmount(p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	if err := h.ledger.Credit(ctx, p.Account, payment.MediumOf(p.PayToken), amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) approve(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner    domain.Address `json:"owner" validate:"required,eth_addr"`
		PayToken domain.Address `json:"payToken" validate:"required,eth_addr"`
		Amount   string         `json:"amount" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	amount, err := domain.ParseAmount(p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	if err := h.ledger.Approve(ctx, p.Owner, p.PayToken, amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
