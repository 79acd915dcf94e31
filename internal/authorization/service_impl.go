package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an in-memory enforcer holding the static ticket policy.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, subjects []string, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		allowed, err := s.enforcer.Enforce(subject, object, action)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
	}

	s.log.Debug("authorization denied",
		zap.Strings("subjects", subjects),
		zap.String("object", object),
		zap.String("action", action),
	)
	return ErrForbidden
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Ticket owner can use the menus in their own channel
		{RoleTicketOwner, ObjectTicket, ActionTicketAct},

		// Staff permissions
		{RoleStaff, ObjectTicket, ActionTicketAct},
		{RoleStaff, ObjectTicket, ActionTicketClose},

		// Admin permissions
		{RoleAdmin, ObjectPanel, ActionPanelPost},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	if _, err := enforcer.AddGroupingPolicy(RoleAdmin, RoleStaff); err != nil {
		return err
	}
	return nil
}
