package discord

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("discord_unavailable")

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	Content string
	Files   []File
}

type Channel struct {
	ID   string
	Name string
}

// ChannelSpec describes a private ticket channel. Only the owner, the
// support role and the bot can see it.
type ChannelSpec struct {
	GuildID       string
	Name          string
	CategoryID    string
	Topic         string
	OwnerID       string
	SupportRoleID string
}

type Provider interface {
	// FindChannelByName queries the guild over REST, bypassing any cache.
	// It returns nil when no channel has that name.
	FindChannelByName(ctx context.Context, guildID, name string) (*Channel, error)
	CreateTicketChannel(ctx context.Context, spec ChannelSpec) (*Channel, error)
	SendMessage(ctx context.Context, channelID string, msg Message) error
	SendDirectMessage(ctx context.Context, userID string, msg Message) error
	DeleteChannel(ctx context.Context, channelID string) error
}
