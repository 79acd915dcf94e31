package domain

import "strings"

// ChannelPrefix starts every ticket channel name.
const ChannelPrefix = "ticket-"

type OpenRequest struct {
	GuildID string
	UserID  string
	UserTag string
}

type Ticket struct {
	GuildID   string
	ChannelID string
	Name      string
	OwnerID   string
}

// Actor is the guild member behind an interaction or message.
type Actor struct {
	UserID         string
	Tag            string
	RoleIDs        []string
	ManageChannels bool
	Administrator  bool
}

func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// ChannelName is deterministic so an existing ticket can be found by name.
func ChannelName(userID string) string {
	return ChannelPrefix + strings.TrimSpace(userID)
}

// OwnerFromChannelName returns the user ID encoded in a ticket channel name,
// or "" when the name is not a ticket channel.
func OwnerFromChannelName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, ChannelPrefix) {
		return ""
	}
	return strings.TrimPrefix(name, ChannelPrefix)
}

func IsTicketChannel(name string) bool {
	return OwnerFromChannelName(name) != ""
}
