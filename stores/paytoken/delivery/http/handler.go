package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/fee"
	"github.com/octans/marketplace/middleware"
)

type handler struct {
	paytokens domain.PayTokenRepo
	policy    *fee.Policy
}

// New registers the pay token allow-list endpoints. Mutations are operator
// only.
func New(e *echo.Echo, paytokens domain.PayTokenRepo, policy *fee.Policy) {
	h := &handler{paytokens, policy}
	g := e.Group("/paytokens")
	g.GET("", h.getPayTokens)
	g.POST("", h.upsertPayToken)
	g.DELETE("/:address", h.removePayToken, middleware.IsValidAddress("address"))
}

func (h *handler) getPayTokens(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	res, err := h.paytokens.FindAll(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) upsertPayToken(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Caller   domain.Address `json:"caller" validate:"required,eth_addr"`
		Name     string         `json:"name" validate:"required"`
		Symbol   string         `json:"symbol" validate:"required"`
		Decimals int32          `json:"decimals" validate:"required"`
		Address  domain.Address `json:"address" validate:"required,eth_addr"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if !h.policy.IsOperator(p.Caller) {
		return delivery.MakeJsonResp(c, http.StatusForbidden, domain.ErrNotAuthorized)
	}

	token := &domain.PayToken{
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: p.Decimals,
		Address:  p.Address,
	}
	if err := h.paytokens.Upsert(ctx, token); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) removePayToken(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Caller domain.Address `json:"caller" validate:"required,eth_addr"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if !h.policy.IsOperator(p.Caller) {
		return delivery.MakeJsonResp(c, http.StatusForbidden, domain.ErrNotAuthorized)
	}

	if err := h.paytokens.Remove(ctx, domain.Address(c.Param("address"))); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
