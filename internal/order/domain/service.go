package domain

import (
	"context"
	"errors"
)

type Service interface {
	Upsert(ctx context.Context, order *Order) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByChannelID(ctx context.Context, channelID string) (*Order, error)
	MarkPaid(ctx context.Context, id string, update PaymentUpdate) (*MarkPaidResult, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

var (
	ErrOrderNotFound = errors.New("order_not_found")
	ErrInvalidOrder  = errors.New("invalid_order")
)
