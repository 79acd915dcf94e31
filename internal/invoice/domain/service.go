package domain

import (
	"context"
	"errors"
	"time"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

type CloseState string

const (
	// CloseStatePaid closes a settled order.
	CloseStatePaid CloseState = "paid"
	// CloseStateForced closes an unpaid order after confirmation.
	CloseStateForced CloseState = "forced"
	// CloseStateNoOrder closes a ticket that never produced an order.
	CloseStateNoOrder CloseState = "no_order"
	// CloseStateConfirm means the close was armed and must be repeated.
	CloseStateConfirm CloseState = "confirm_required"
)

type CloseRequest struct {
	GuildID     string
	ChannelID   string
	ChannelName string
	Actor       ticketdomain.Actor
}

type CloseResult struct {
	State             CloseState
	NeedsConfirmation bool
	Order             *orderdomain.Order
	InvoiceKey        string
	InvoiceURL        string
	Delivered         bool
	DeleteAfter       time.Duration
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type Service interface {
	Close(ctx context.Context, req CloseRequest) (*CloseResult, error)
}
