package bot

import (
	"github.com/bwmarrin/discordgo"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
)

func actorFromMember(user *discordgo.User, member *discordgo.Member, permissions int64) ticketdomain.Actor {
	actor := ticketdomain.Actor{
		ManageChannels: permissions&discordgo.PermissionManageChannels != 0,
		Administrator:  permissions&discordgo.PermissionAdministrator != 0,
	}
	if member != nil {
		actor.RoleIDs = append(actor.RoleIDs, member.Roles...)
		if user == nil {
			user = member.User
		}
	}
	if user != nil {
		actor.UserID = user.ID
		actor.Tag = user.String()
	}
	return actor
}

func interactionActor(i *discordgo.InteractionCreate) ticketdomain.Actor {
	if i.Member != nil {
		return actorFromMember(i.Member.User, i.Member, i.Member.Permissions)
	}
	return actorFromMember(i.User, nil, 0)
}
