package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/ticketbot/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

func (r *repo) FindLatestByChannel(ctx context.Context, db *gorm.DB, channelID string, limit int) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id string, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, paid_at = COALESCE(paid_at, ?), updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaid,
		paidAt,
		paidAt,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
