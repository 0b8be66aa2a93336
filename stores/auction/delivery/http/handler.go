package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	"github.com/octans/marketplace/domain"
	dAuction "github.com/octans/marketplace/domain/auction"
	"github.com/octans/marketplace/middleware"
)

type handler struct {
	auction dAuction.UseCase
}

func New(e *echo.Echo, auction dAuction.UseCase) {
	h := &handler{auction}
	g := e.Group("/auction")
	g.GET("", h.getAuctions)
	g.GET("/:nft/:tokenId", h.getAuction, middleware.IsValidAddress("nft"))
	g.GET("/:nft/:tokenId/highest-bid", h.getHighestBid, middleware.IsValidAddress("nft"))
	g.POST("", h.createAuction)
	g.POST("/bid", h.placeBid)
	g.POST("/bid-with-token", h.placeBidWithToken)
	g.POST("/result", h.resultAuction)
	g.DELETE("", h.cancelAuction)
	g.PATCH("/min-bid-increment", h.updateMinBidIncrement)
}

func (h *handler) getAuctions(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.GetAuctions(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getAuction(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	nft := domain.Address(c.Param("nft"))
	tokenId := domain.TokenId(c.Param("tokenId"))

	res, err := h.auction.GetAuction(ctx, nft, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getHighestBid(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	nft := domain.Address(c.Param("nft"))
	tokenId := domain.TokenId(c.Param("tokenId"))

	res, err := h.auction.GetHighestBid(ctx, nft, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) createAuction(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner        domain.Address  `json:"owner" validate:"required,eth_addr"`
		Nft          domain.Address  `json:"nft" validate:"required,eth_addr"`
		TokenId      domain.TokenId  `json:"tokenId" validate:"required"`
		PayToken     domain.Address  `json:"payToken"`
		ReservePrice string          `json:"reservePrice" validate:"required"`
		StartTime    domain.UnixTime `json:"startTime" validate:"required"`
		EndTime      domain.UnixTime `json:"endTime" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	reserve, err := domain.ParseAmount(p.ReservePrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid reservePrice")
	}

	if err := h.auction.CreateAuction(ctx, p.Owner, p.Nft, p.TokenId, p.PayToken, reserve, p.StartTime, p.EndTime); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) placeBid(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Bidder  domain.Address `json:"bidder" validate:"required,eth_addr"`
		Nft     domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId domain.TokenId `json:"tokenId" validate:"required"`
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

	if err := h.auction.PlaceBid(ctx, p.Bidder, p.Nft, p.TokenId, attached); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) placeBidWithToken(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Bidder  domain.Address `json:"bidder" validate:"required,eth_addr"`
		Nft     domain.Address `json:"nft" validate:"required,eth_addr"`
		TokenId domain.TokenId `json:"tokenId" validate:"required"`
		Amount  string         `json:"amount" validate:"required"`
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

	if err := h.auction.PlaceBidWithToken(ctx, p.Bidder, p.Nft, p.TokenId, amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) resultAuction(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Caller  domain.Address `json:"caller" validate:"required,eth_addr"`
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

	if err := h.auction.ResultAuction(ctx, p.Caller, p.Nft, p.TokenId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelAuction(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Caller  domain.Address `json:"caller" validate:"required,eth_addr"`
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

	if err := h.auction.CancelAuction(ctx, p.Caller, p.Nft, p.TokenId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) updateMinBidIncrement(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Caller    domain.Address `json:"caller" validate:"required,eth_addr"`
		Increment string         `json:"increment" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	increment, err := domain.ParseAmount(p.Increment)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid increment")
	}

	if err := h.auction.UpdateMinBidIncrement(ctx, p.Caller, increment); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
