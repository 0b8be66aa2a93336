package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	bCtx "github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/delivery"
	dJournal "github.com/octans/marketplace/domain/journal"
	"github.com/octans/marketplace/middleware"
)

type handler struct {
	journal dJournal.UseCase
}

func New(e *echo.Echo, journal dJournal.UseCase) {
	h := &handler{journal}
	g := e.Group("/journal")
	g.GET("/entries", h.getEntries, middleware.CacheHttp(10*time.Second))
	g.GET("/entries/count", h.countEntries, middleware.CacheHttp(10*time.Second))
}

func (h *handler) getEntries(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Topic  *string `query:"topic"`
		Offset int32   `query:"offset"`
		Limit  int32   `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []dJournal.FindAllOptions{
		dJournal.WithPagination(p.Offset, p.Limit),
	}
	if p.Topic != nil {
		opts = append(opts, dJournal.WithTopic(*p.Topic))
	}

	res, err := h.journal.GetEntries(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) countEntries(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	type params struct {
		Topic *string `query:"topic"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []dJournal.FindAllOptions{}
	if p.Topic != nil {
		opts = append(opts, dJournal.WithTopic(*p.Topic))
	}

	res, err := h.journal.CountEntries(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
