package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Order, error)
	FindLatestByChannel(ctx context.Context, db *gorm.DB, channelID string, limit int) ([]*Order, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]*Order, error)
	Update(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error
	// MarkPaid flips a pending order to paid and reports whether this call did it.
	MarkPaid(ctx context.Context, db *gorm.DB, id string, paidAt time.Time) (bool, error)
}
