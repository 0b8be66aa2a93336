package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/octans/marketplace/domain"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// conflictErrs are state rejections: the caller holds a stale view and must
// re-query before retrying.
var conflictErrs = []error{
	domain.ErrAlreadyListed,
	domain.ErrAlreadyAuctioned,
	domain.ErrListingNotActive,
	domain.ErrAuctionNotLive,
	domain.ErrBidTooLow,
	domain.ErrBidExists,
	domain.ErrAlreadyResulted,
	domain.ErrPayTokenMismatch,
}

var paymentErrs = []error{
	domain.ErrInsufficientFunds,
	domain.ErrInsufficientAllowance,
	domain.ErrInsufficientPayment,
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		case matchAny(err, conflictErrs):
			status = http.StatusConflict
		case matchAny(err, paymentErrs):
			status = http.StatusPaymentRequired
		case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, domain.ErrNotOwnerOrUnapproved):
			status = http.StatusForbidden
		}
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}

func matchAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
