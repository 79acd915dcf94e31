package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketbot/internal/payment/domain"
	"github.com/smallbiznis/ticketbot/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, conn *gorm.DB, event *domain.EventRecord) (bool, error) {
	err := conn.WithContext(ctx).Create(event).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repo) FindEvent(ctx context.Context, conn *gorm.DB, provider, providerEventID string) (*domain.EventRecord, error) {
	var items []*domain.EventRecord
	err := conn.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *repo) MarkProcessed(ctx context.Context, conn *gorm.DB, id snowflake.ID, at time.Time) error {
	return conn.WithContext(ctx).
		Model(&domain.EventRecord{}).
		Where("id = ?", id).
		Update("processed_at", at).Error
}

func (r *repo) ListByOrder(ctx context.Context, conn *gorm.DB, orderID string) ([]*domain.EventRecord, error) {
	var items []*domain.EventRecord
	err := conn.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("received_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
