package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	invoicedomain "github.com/smallbiznis/ticketbot/internal/invoice/domain"
	"github.com/smallbiznis/ticketbot/internal/observability/logger"
	"github.com/smallbiznis/ticketbot/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/providers/discord"
	"github.com/smallbiznis/ticketbot/internal/providers/pdf"
	"github.com/smallbiznis/ticketbot/internal/providers/storage"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultCloseDelay    = 10 * time.Second
	defaultConfirmWindow = 5 * time.Minute
)

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Clock     clock.Clock
	Orders    orderdomain.Service
	Tickets   ticketdomain.Service
	Discord   discord.Provider
	Renderer  pdf.Provider
	Storage   storage.Storage
	Scheduler invoicedomain.Scheduler `optional:"true"`
	Metrics   *metrics.Metrics        `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	orders    orderdomain.Service
	tickets   ticketdomain.Service
	discord   discord.Provider
	renderer  pdf.Provider
	storage   storage.Storage
	scheduler invoicedomain.Scheduler
	metrics   *metrics.Metrics

	storeName     string
	logChannelID  string
	closeTrigger  string
	closeDelay    time.Duration
	confirmWindow time.Duration
}

func NewService(p Params) invoicedomain.Service {
	scheduler := p.Scheduler
	if scheduler == nil {
		scheduler = timerScheduler{}
	}
	delay := p.Config.Ticket.CloseDelay
	if delay <= 0 {
		delay = defaultCloseDelay
	}
	window := p.Config.Ticket.ConfirmWindow
	if window <= 0 {
		window = defaultConfirmWindow
	}
	trigger := strings.TrimSpace(p.Config.Ticket.CloseTrigger)
	if trigger == "" {
		trigger = "+close"
	}
	return &Service{
		log:           p.Log.Named("invoice.service"),
		clock:         p.Clock,
		orders:        p.Orders,
		tickets:       p.Tickets,
		discord:       p.Discord,
		renderer:      p.Renderer,
		storage:       p.Storage,
		scheduler:     scheduler,
		metrics:       p.Metrics,
		storeName:     p.Config.StoreName,
		logChannelID:  strings.TrimSpace(p.Config.Discord.LogChannelID),
		closeTrigger:  trigger,
		closeDelay:    delay,
		confirmWindow: window,
	}
}

// Close finishes a ticket: staff only, unpaid orders need a repeated close,
// the buyer receives a PDF receipt and the channel is deleted after a delay.
func (s *Service) Close(ctx context.Context, req invoicedomain.CloseRequest) (*invoicedomain.CloseResult, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		return nil, invoicedomain.ErrInvalidRequest
	}
	if !s.tickets.CanClose(ctx, req.Actor) {
		return nil, invoicedomain.ErrForbidden
	}

	log := logger.WithActor(logger.WithContext(ctx, s.log).With(zap.String("channel_id", channelID)), req.Actor.UserID)

	order, err := s.orders.GetByChannelID(ctx, channelID)
	if err != nil {
		if !errors.Is(err, orderdomain.ErrOrderNotFound) {
			return nil, err
		}
		s.countdown(ctx, log, channelID)
		s.scheduleDelete(channelID)
		s.metrics.IncTicketClosed(string(invoicedomain.CloseStateNoOrder))
		log.Info("ticket closed without order")
		return &invoicedomain.CloseResult{
			State:       invoicedomain.CloseStateNoOrder,
			DeleteAfter: s.closeDelay,
		}, nil
	}
	log = log.With(zap.String("order_id", order.ID))

	state := invoicedomain.CloseStatePaid
	if !order.IsPaid() {
		if !s.tickets.ConfirmForceClose(channelID) {
			s.post(ctx, log, channelID, fmt.Sprintf(
				"Order `%s` is still unpaid. Send `%s` again within %s to close anyway.",
				order.InvoiceID(), s.closeTrigger, s.confirmWindow))
			s.metrics.IncTicketClosed(string(invoicedomain.CloseStateConfirm))
			return &invoicedomain.CloseResult{
				State:             invoicedomain.CloseStateConfirm,
				NeedsConfirmation: true,
				Order:             order,
			}, nil
		}
		state = invoicedomain.CloseStateForced
	} else {
		s.tickets.ClearForceClose(channelID)
	}

	receipt, err := s.renderer.RenderReceipt(ctx, receiptData(s.storeName, order, s.clock.Now()))
	if err != nil {
		log.Error("render receipt failed", zap.Error(err))
		return nil, err
	}

	result := &invoicedomain.CloseResult{
		State:       state,
		Order:       order,
		InvoiceKey:  receiptFileName(order),
		DeleteAfter: s.closeDelay,
	}

	stored, err := s.storage.Put(ctx, bytes.NewReader(receipt), storage.PutInput{
		Key:         result.InvoiceKey,
		ContentType: "application/pdf",
		Size:        int64(len(receipt)),
	})
	if err != nil {
		log.Warn("store receipt failed", zap.Error(err))
	} else {
		result.InvoiceURL = stored.URL
	}

	s.countdown(ctx, log, channelID)

	err = s.discord.SendDirectMessage(ctx, order.UserID, discord.Message{
		Content: fmt.Sprintf("Thanks for your purchase from %s! Your receipt for order `%s` is attached.",
			s.storeName, order.InvoiceID()),
		Files: []discord.File{{
			Name:        result.InvoiceKey,
			ContentType: "application/pdf",
			Data:        receipt,
		}},
	})
	if err != nil {
		log.Warn("receipt direct message failed", zap.String("user_id", order.UserID), zap.Error(err))
	} else {
		result.Delivered = true
	}

	if s.logChannelID != "" {
		s.post(ctx, log, s.logChannelID, auditSummary(order, req.Actor.UserID, string(state)))
	}

	s.scheduleDelete(channelID)
	s.metrics.IncTicketClosed(string(state))
	log.Info("ticket closed",
		zap.String("state", string(state)),
		zap.Bool("receipt_delivered", result.Delivered),
	)
	return result, nil
}

func (s *Service) countdown(ctx context.Context, log *zap.Logger, channelID string) {
	s.post(ctx, log, channelID, fmt.Sprintf("This ticket will be deleted in %s.", s.closeDelay))
}

func (s *Service) post(ctx context.Context, log *zap.Logger, channelID, content string) {
	if err := s.discord.SendMessage(ctx, channelID, discord.Message{Content: content}); err != nil {
		log.Warn("post message failed", zap.String("target", channelID), zap.Error(err))
	}
}

func (s *Service) scheduleDelete(channelID string) {
	s.scheduler.AfterFunc(s.closeDelay, func() {
		s.tickets.ClearForceClose(channelID)
		if err := s.discord.DeleteChannel(context.Background(), channelID); err != nil {
			s.log.Warn("delete ticket channel failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
}
