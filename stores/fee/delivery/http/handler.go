package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/fee"
)

type handler struct {
	policy *fee.Policy
}

// New registers the platform fee endpoints. Rate and recipient changes are
// operator only, enforced by the policy itself.
func New(e *echo.Echo, policy *fee.Policy) {
	h := &handler{policy}
	g := e.Group("/fee")
	g.GET("", h.getPolicy)
	g.PATCH("/rate", h.updateRate)
	g.PATCH("/recipient", h.updateRecipient)
}

func (h *handler) getPolicy(c echo.Context) error {
	type resp struct {
		PlatformFeeBps int64          `json:"platformFeeBps"`
		FeeRecipient   domain.Address `json:"feeRecipient"`
	}
	return delivery.MakeJsonResp(c, http.StatusOK, resp{
		PlatformFeeBps: h.policy.PlatformFeeBps(),
		FeeRecipient:   h.policy.FeeRecipient(),
	})
}

func (h *handler) updateRate(c echo.Context) error {
	type params struct {
		Caller  domain.Address `json:"caller" validate:"required,eth_addr"`
		RateBps string         `json:"rateBps" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	rate, err := strconv.ParseInt(p.RateBps, 10, 64)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid rateBps")
	}

	if err := h.policy.UpdateRate(p.Caller, rate); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) updateRecipient(c echo.Context) error {
	type params struct {
		Caller    domain.Address `json:"caller" validate:"required,eth_addr"`
		Recipient domain.Address `json:"recipient" validate:"required,eth_addr"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if err := h.policy.UpdateRecipient(p.Caller, p.Recipient); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
