package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

const (
	RoleAdmin       = "role:admin"
	RoleStaff       = "role:staff"
	RoleTicketOwner = "role:ticket_owner"
)

const (
	ObjectTicket = "ticket"
	ObjectPanel  = "panel"
)

const (
	ActionTicketAct   = "ticket.act"
	ActionTicketClose = "ticket.close"
	ActionPanelPost   = "panel.post"
)

// Service checks whether any of the given role subjects may perform action
// on object.
type Service interface {
	Authorize(ctx context.Context, subjects []string, object string, action string) error
}
