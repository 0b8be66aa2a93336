package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	// validation errors, rejected before any state mutation or fund movement
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidTimeWindow    = errors.New("invalid time window")
	ErrInvalidPayToken      = errors.New("invalid pay token")
	ErrNotOwnerOrUnapproved = errors.New("not owner or unapproved")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrInvalidFeeRate       = errors.New("fee rate exceeds 100%")

	// state errors, rejected with no side effects
	ErrAlreadyListed    = errors.New("item already listed")
	ErrAlreadyAuctioned = errors.New("item already has an auction")
	ErrListingNotActive = errors.New("listing not active")
	ErrAuctionNotLive   = errors.New("auction not live")
	ErrBidTooLow        = errors.New("bid too low")
	ErrBidExists        = errors.New("auction already has a bid")
	ErrAlreadyResulted  = errors.New("auction already resulted")
	ErrPayTokenMismatch = errors.New("pay token mismatch")

	// transfer errors, the whole operation rolls back as a unit
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrTransferFailed        = errors.New("transfer failed")
)
