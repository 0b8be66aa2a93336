package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/domain"
	dMarketplace "github.com/octans/marketplace/domain/marketplace"
	"github.com/octans/marketplace/middleware"
)

type handler struct {
	marketplace dMarketplace.UseCase
}

func New(e *echo.Echo, marketplace dMarketplace.UseCase) {
	h := &handler{marketplace}
	g := e.Group("/marketplace")
	g.GET("/listings", h.getListings)
	g.GET("/listing/:nft/:tokenId/:owner", h.getListing, middleware.IsValidAddress("nft"), middleware.IsValidAddress("owner"))
	g.POST("/listing", h.listItem)
	g.PUT("/listing", h.updateListing)
	g.DELETE("/listing", h.cancelListing)
	g.POST("/buy", h.buyItem)
	g.POST("/buy-with-token", h.buyItemWithToken)
}

func (h *handler) getListings(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner    *domain.Address `query:"owner"`
		Nft      *domain.Address `query:"nft"`
		PayToken *domain.Address `query:"payToken"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []dMarketplace.FindAllOptions{}
	if p.Owner != nil {
		opts = append(opts, dMarketplace.WithOwner(*p.Owner))
	}
	if p.Nft != nil {
		opts = append(opts, dMarketplace.WithNft(*p.Nft))
	}
	if p.PayToken != nil {
		opts = append(opts, dMarketplace.WithPayToken(*p.PayToken))
	}

	res, err := h.marketplace.GetListings(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getListing(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	nft := domain.Address(c.Param("nft"))
	tokenId := domain.TokenId(c.Param("tokenId"))
	owner := domain.Address(c.Param("owner"))

	res, err := h.marketplace.GetListing(ctx, nft, tokenId, owner)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) listItem(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Seller       domain.Address  `json:"seller" validate:"required,eth_addr"`
		Nft          domain.Address  `json:"nft" validate:"required,eth_addr"`
		TokenId      domain.TokenId  `json:"tokenId" validate:"required"`
		Quantity     int64           `json:"quantity" validate:"required"`
		PayToken     domain.Address  `json:"payToken"`
		PricePerItem string          `json:"pricePerItem" validate:"required"`
		StartingTime domain.UnixTime `json:"startingTime"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	price, err := domain.ParseAmount(p.PricePerItem)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid pricePerItem")
	}

	if err := h.marketplace.ListItem(ctx, p.Seller, p.Nft, p.TokenId, p.Quantity, p.PayToken, price, p.StartingTime); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) updateListing(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Seller   domain.Address `json:"seller" validate:"required,eth_addr"`
		Nft      domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId  domain.TokenId `json:"tokenId" validate:"required"`
		PayToken domain.Address `json:"payToken"`
		Price    string         `json:"pricePerItem" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	price, err := domain.ParseAmount(p.Price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid pricePerItem")
	}

	if err := h.marketplace.UpdateListing(ctx, p.Seller, p.Nft, p.TokenId, p.PayToken, price); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelListing(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Seller  domain.Address `json:"seller" validate:"required,eth_addr"`
		Nft     domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId domain.TokenId `json:"tokenId" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if err := h.marketplace.CancelListing(ctx, p.Seller, p.Nft, p.TokenId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) buyItem(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Buyer   domain.Address `json:"buyer" validate:"required,eth_addr"`
		Nft     domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId domain.TokenId `json:"tokenId" validate:"required"`
		Seller  domain.Address `json:"seller" validate:"required,eth_addr"`
		Value   string         `json:"value" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	attached, err := domain.ParseAmount(p.Value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid value")
	}

	if err := h.marketplace.BuyItem(ctx, p.Buyer, p.Nft, p.TokenId, p.Seller, attached); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) buyItemWithToken(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Buyer    domain.Address `json:"buyer" validate:"required,eth_addr"`
		Nft      domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId  domain.TokenId `json:"tokenId" validate:"required"`
		PayToken domain.Address `json:"payToken" validate:"required,eth_addr"`
		Seller   domain.Address `json:"seller" validate:"required,eth_addr"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	if err := h.marketplace.BuyItemWithToken(ctx, p.Buyer, p.Nft, p.TokenId, p.PayToken, p.Seller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
