package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/middleware"
	"github.com/octans/marketplace/stores/asset/repository"
)

type handler struct {
	registry repository.Registry
}

func New(e *echo.Echo, registry repository.Registry) {
	h := &handler{registry}
	g := e.Group("/assets")
	g.GET("/:nft/:tokenId/owner", h.getOwner, middleware.IsValidAddress("nft"))
	g.GET("/:nft/:tokenId/balance/:holder", h.getBalance, middleware.IsValidAddress("nft"), middleware.IsValidAddress("holder"))
	g.POST("/mint", h.mint)
	g.POST("/approval", h.setApproval)
}

func (h *handler) getOwner(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	nft := domain.Address(c.Param("nft"))
	tokenId := domain.TokenId(c.Param("tokenId"))

	owner, err := h.registry.OwnerOf(ctx, nft, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, owner)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	nft := domain.Address(c.Param("nft"))
	tokenId := domain.TokenId(c.Param("tokenId"))
	holder := domain.Address(c.Param("holder"))

	balance, err := h.registry.BalanceOf(ctx, holder, nft, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance)
}

func (h *handler) mint(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner    domain.Address `json:"owner" validate:"required,eth_addr"`
		Nft      domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId  domain.TokenId `json:"tokenId" validate:"required"`
		Quantity int64          `json:"quantity" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if err := h.registry.Mint(ctx, p.Owner, p.Nft, p.TokenId, p.Quantity); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setApproval(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner    domain.Address `json:"owner" validate:"required,eth_addr"`
		Operator domain.Address `json:"operator" validate:"required,eth_addr"`
		Approved bool           `json:"approved"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if err := h.registry.SetApprovalForAll(ctx, p.Owner, p.Operator, p.Approved); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
