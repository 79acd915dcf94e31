package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Upsert inserts a new order or merges the non-zero fields of order into the
// stored record. The stored ID, CreatedAt and product snapshot always win.
func (s *Service) Upsert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil || strings.TrimSpace(order.ID) == "" {
		return nil, domain.ErrInvalidOrder
	}

	var stored *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if existing == nil {
			if order.ChannelID == "" || order.UserID == "" {
				return domain.ErrInvalidOrder
			}
			created := *order
			if created.Status == "" {
				created.Status = domain.StatusPending
			}
			if created.CreatedAt.IsZero() {
				created.CreatedAt = now
			}
			created.UpdatedAt = now
			if err := s.repo.Insert(ctx, tx, &created); err != nil {
				return err
			}
			stored = &created
			return nil
		}

		fields := mergeFields(existing, order)
		if _, ok := fields["status"]; ok && existing.PaidAt == nil {
			if _, ok := fields["paid_at"]; !ok {
				fields["paid_at"] = now
			}
		}
		if len(fields) == 0 {
			stored = existing
			return nil
		}
		fields["updated_at"] = now
		if err := s.repo.Update(ctx, tx, existing.ID, fields); err != nil {
			return err
		}

		stored, err = s.repo.FindByID(ctx, tx, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrOrderNotFound
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// GetByChannelID returns the most recent order created in the channel.
func (s *Service) GetByChannelID(ctx context.Context, channelID string) (*domain.Order, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, domain.ErrOrderNotFound
	}

	orders, err := s.repo.FindLatestByChannel(ctx, s.db, channelID, 2)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	if len(orders) > 1 {
		s.log.Warn("multiple orders share a ticket channel",
			zap.String("channel_id", channelID),
			zap.String("order_id", orders[0].ID),
			zap.String("older_order_id", orders[1].ID),
		)
	}
	return orders[0], nil
}

// MarkPaid moves the order to paid and merges the reported payment fields.
// Repeating the call with the same update leaves the order unchanged.
func (s *Service) MarkPaid(ctx context.Context, id string, update domain.PaymentUpdate) (*domain.MarkPaidResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrOrderNotFound
	}

	result := &domain.MarkPaidResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrOrderNotFound
		}

		now := s.clock.Now()
		transitioned, err := s.repo.MarkPaid(ctx, tx, id, now)
		if err != nil {
			return err
		}
		result.Transitioned = transitioned

		fields := paymentFields(existing.Payment, update)
		if len(fields) > 0 {
			fields["updated_at"] = now
			if err := s.repo.Update(ctx, tx, id, fields); err != nil {
				return err
			}
		}

		result.Order, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.log.Warn("mark paid for unknown order", zap.String("order_id", id))
		}
		return nil, err
	}

	if result.Transitioned {
		s.log.Info("order paid",
			zap.String("order_id", id),
			zap.String("provider", result.Order.Payment.Provider),
			zap.String("paid_amount", result.Order.Payment.PaidAmount),
		)
	}
	return result, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidOrder
	}

	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orders = append(orders, *item)
	}
	return orders, nil
}

func mergeFields(existing, incoming *domain.Order) map[string]any {
	fields := map[string]any{}
	setString := func(column, current, next string) {
		if next != "" && next != current {
			fields[column] = next
		}
	}

	setString("guild_id", existing.GuildID, incoming.GuildID)
	setString("channel_id", existing.ChannelID, incoming.ChannelID)
	setString("user_id", existing.UserID, incoming.UserID)
	setString("user_tag", existing.UserTag, incoming.UserTag)

	// Status only moves forward.
	if incoming.Status == domain.StatusPaid && existing.Status != domain.StatusPaid {
		fields["status"] = domain.StatusPaid
		if existing.PaidAt == nil && incoming.PaidAt != nil {
			fields["paid_at"] = *incoming.PaidAt
		}
	}

	setString("payment_method", string(existing.Payment.Method), string(incoming.Payment.Method))
	setString("payment_provider", existing.Payment.Provider, incoming.Payment.Provider)
	setString("payment_url", existing.Payment.URL, incoming.Payment.URL)
	setString("payment_transaction_id", existing.Payment.TransactionID, incoming.Payment.TransactionID)
	setString("payment_paid_amount", existing.Payment.PaidAmount, incoming.Payment.PaidAmount)
	return fields
}

func paymentFields(current domain.Payment, update domain.PaymentUpdate) map[string]any {
	fields := map[string]any{}
	if update.Method != "" && update.Method != current.Method {
		fields["payment_method"] = string(update.Method)
	}
	if update.Provider != "" && update.Provider != current.Provider {
		fields["payment_provider"] = update.Provider
	}
	if update.TransactionID != "" && update.TransactionID != current.TransactionID {
		fields["payment_transaction_id"] = update.TransactionID
	}
	if update.PaidAmount != "" && update.PaidAmount != current.PaidAmount {
		fields["payment_paid_amount"] = update.PaidAmount
	}
	return fields
}
