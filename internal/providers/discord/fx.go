package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/smallbiznis/ticketbot/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.discord",
	fx.Provide(NewSession),
	fx.Provide(func(session *discordgo.Session) Provider {
		return NewSessionProvider(session)
	}),
)

// NewSession builds an unopened gateway session. The bot opens it once its
// handlers are registered.
func NewSession(cfg config.Config) (*discordgo.Session, error) {
	if cfg.Discord.Token == "" {
		return nil, errors.New("DISCORD_TOKEN is required")
	}
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent
	return session, nil
}
