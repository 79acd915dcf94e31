package domain

import "context"

type Service interface {
	Open(ctx context.Context, req OpenRequest) (*Ticket, error)
	IsStaff(actor Actor) bool
	CanAct(ctx context.Context, actor Actor, channelName string) bool
	CanClose(ctx context.Context, actor Actor) bool
	CanPostPanel(ctx context.Context, actor Actor) bool
	ConfirmForceClose(channelID string) bool
	ClearForceClose(channelID string)
}
