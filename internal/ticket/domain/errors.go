package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTicketInProgress = errors.New("ticket_in_progress")
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrForbidden        = errors.New("forbidden")
)

// ExistingTicketError reports the channel of a ticket the user already has.
type ExistingTicketError struct {
	ChannelID string
}

func (e *ExistingTicketError) Error() string {
	return fmt.Sprintf("ticket_exists: %s", e.ChannelID)
}
