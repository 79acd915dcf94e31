package discord

import (
	"bytes"
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const ticketMemberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAttachFiles

// SessionProvider talks to Discord through a discordgo session.
type SessionProvider struct {
	session *discordgo.Session
}

func NewSessionProvider(session *discordgo.Session) *SessionProvider {
	return &SessionProvider{session: session}
}

func (p *SessionProvider) FindChannelByName(ctx context.Context, guildID, name string) (*Channel, error) {
	channels, err := p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch != nil && strings.EqualFold(ch.Name, name) {
			return &Channel{ID: ch.ID, Name: ch.Name}, nil
		}
	}
	return nil, nil
}

func (p *SessionProvider) CreateTicketChannel(ctx context.Context, spec ChannelSpec) (*Channel, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares the guild ID.
			ID:   spec.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    spec.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketMemberPermissions,
		},
	}
	if spec.SupportRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    spec.SupportRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: ticketMemberPermissions | discordgo.PermissionManageMessages,
		})
	}
	if p.session.State != nil && p.session.State.User != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    p.session.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketMemberPermissions | discordgo.PermissionManageChannels,
		})
	}

	ch, err := p.session.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &Channel{ID: ch.ID, Name: ch.Name}, nil
}

func (p *SessionProvider) SendMessage(ctx context.Context, channelID string, msg Message) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	return err
}

func (p *SessionProvider) SendDirectMessage(ctx context.Context, userID string, msg Message) error {
	dm, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	return p.SendMessage(ctx, dm.ID, msg)
}

func (p *SessionProvider) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := p.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func toMessageSend(msg Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: msg.Content}
	for _, f := range msg.Files {
		out.Files = append(out.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	return out
}

var _ Provider = (*SessionProvider)(nil)
