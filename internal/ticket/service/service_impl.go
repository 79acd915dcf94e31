package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/ticketbot/internal/authorization"
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/observability/metrics"
	"github.com/smallbiznis/ticketbot/internal/providers/discord"
	"github.com/smallbiznis/ticketbot/internal/ticket/domain"
	"github.com/smallbiznis/ticketbot/internal/ticket/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultLockTTL       = 15 * time.Second
	defaultConfirmWindow = 5 * time.Minute
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Locker  lock.Locker
	Discord discord.Provider
	Authz   authorization.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	locker  lock.Locker
	discord discord.Provider
	authz   authorization.Service
	metrics *metrics.Metrics

	categoryID    string
	supportRoleID string
	ownerID       string
	lockTTL       time.Duration
	confirmWindow time.Duration

	mu           sync.Mutex
	pendingClose map[string]time.Time
}

func New(p Params) domain.Service {
	lockTTL := p.Config.Ticket.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	window := p.Config.Ticket.ConfirmWindow
	if window <= 0 {
		window = defaultConfirmWindow
	}
	return &Service{
		log:           p.Log.Named("ticket.service"),
		clock:         p.Clock,
		locker:        p.Locker,
		discord:       p.Discord,
		authz:         p.Authz,
		metrics:       p.Metrics,
		categoryID:    p.Config.Ticket.CategoryID,
		supportRoleID: p.Config.Ticket.SupportRoleID,
		ownerID:       p.Config.Ticket.OwnerID,
		lockTTL:       lockTTL,
		confirmWindow: window,
		pendingClose:  map[string]time.Time{},
	}
}

// Open creates the user's private ticket channel. At most one open runs per
// user at a time, and an existing channel is reported instead of duplicated.
func (s *Service) Open(ctx context.Context, req domain.OpenRequest) (*domain.Ticket, error) {
	guildID := strings.TrimSpace(req.GuildID)
	userID := strings.TrimSpace(req.UserID)
	if guildID == "" || userID == "" {
		return nil, domain.ErrInvalidRequest
	}
	log := s.log.With(zap.String("user_id", userID), zap.String("guild_id", guildID))

	key := "ticket:open:" + userID
	token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		s.metrics.IncTicketOpened("failed")
		return nil, err
	}
	if !ok {
		s.metrics.IncTicketOpened("in_progress")
		return nil, domain.ErrTicketInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn("release ticket lock failed", zap.Error(err))
		}
	}()

	name := domain.ChannelName(userID)
	existing, err := s.discord.FindChannelByName(ctx, guildID, name)
	if err != nil {
		s.metrics.IncTicketOpened("failed")
		return nil, err
	}
	if existing != nil {
		s.metrics.IncTicketOpened("existing")
		return nil, &domain.ExistingTicketError{ChannelID: existing.ID}
	}

	channel, err := s.discord.CreateTicketChannel(ctx, discord.ChannelSpec{
		GuildID:       guildID,
		Name:          name,
		CategoryID:    s.categoryID,
		Topic:         topic(req),
		OwnerID:       userID,
		SupportRoleID: s.supportRoleID,
	})
	if err != nil {
		s.metrics.IncTicketOpened("failed")
		log.Error("create ticket channel failed", zap.Error(err))
		return nil, err
	}

	s.metrics.IncTicketOpened("created")
	log.Info("ticket opened", zap.String("channel_id", channel.ID))
	return &domain.Ticket{
		GuildID:   guildID,
		ChannelID: channel.ID,
		Name:      channel.Name,
		OwnerID:   userID,
	}, nil
}

func topic(req domain.OpenRequest) string {
	if tag := strings.TrimSpace(req.UserTag); tag != "" {
		return fmt.Sprintf("Ticket for %s (%s)", tag, req.UserID)
	}
	return fmt.Sprintf("Ticket for %s", req.UserID)
}

// IsStaff is true for members with channel management permission, the
// support role, or the configured owner.
func (s *Service) IsStaff(actor domain.Actor) bool {
	if actor.Administrator || actor.ManageChannels {
		return true
	}
	if actor.HasRole(s.supportRoleID) {
		return true
	}
	return s.ownerID != "" && actor.UserID == s.ownerID
}

func (s *Service) subjects(actor domain.Actor, channelName string) []string {
	var out []string
	if actor.Administrator || (s.ownerID != "" && actor.UserID == s.ownerID) {
		out = append(out, authorization.RoleAdmin)
	}
	if s.IsStaff(actor) {
		out = append(out, authorization.RoleStaff)
	}
	if owner := domain.OwnerFromChannelName(channelName); owner != "" && owner == actor.UserID {
		out = append(out, authorization.RoleTicketOwner)
	}
	return out
}

// CanAct reports whether actor may use the controls inside a ticket channel.
func (s *Service) CanAct(ctx context.Context, actor domain.Actor, channelName string) bool {
	return s.authz.Authorize(ctx, s.subjects(actor, channelName), authorization.ObjectTicket, authorization.ActionTicketAct) == nil
}

func (s *Service) CanClose(ctx context.Context, actor domain.Actor) bool {
	return s.authz.Authorize(ctx, s.subjects(actor, ""), authorization.ObjectTicket, authorization.ActionTicketClose) == nil
}

func (s *Service) CanPostPanel(ctx context.Context, actor domain.Actor) bool {
	return s.authz.Authorize(ctx, s.subjects(actor, ""), authorization.ObjectPanel, authorization.ActionPanelPost) == nil
}

// ConfirmForceClose arms a pending close for channelID and returns false, or
// returns true when a close was already armed within the confirm window.
func (s *Service) ConfirmForceClose(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if armedAt, ok := s.pendingClose[channelID]; ok && now.Sub(armedAt) <= s.confirmWindow {
		delete(s.pendingClose, channelID)
		return true
	}
	s.pendingClose[channelID] = now
	return false
}

func (s *Service) ClearForceClose(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingClose, channelID)
}
