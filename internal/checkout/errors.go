package checkout

import "errors"

var (
	ErrProductNotFound = errors.New("product_not_found")
	ErrOrderPending    = errors.New("order_pending")
	ErrAlreadyPaid     = errors.New("order_already_paid")
	ErrWrongChannel    = errors.New("wrong_channel")
	ErrInvalidRequest  = errors.New("invalid_request")
)
