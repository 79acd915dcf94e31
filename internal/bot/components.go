package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/smallbiznis/ticketbot/internal/catalog"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
)

const (
	CommandPanel = "panel"

	CustomIDOpen    = "ticket:open"
	CustomIDProduct = "ticket:product"
	CustomIDPayment = "ticket:payment"
)

func panelCommand() *discordgo.ApplicationCommand {
	perms := int64(discordgo.PermissionAdministrator)
	return &discordgo.ApplicationCommand{
		Name:                     CommandPanel,
		Description:              "Post the ticket panel in this channel",
		DefaultMemberPermissions: &perms,
	}
}

func panelMessage(storeName string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       storeName,
			Description: "Press the button below to open a private ticket and place an order.",
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Open ticket",
					Style:    discordgo.PrimaryButton,
					CustomID: CustomIDOpen,
				},
			}},
		},
	}
}

func productMenu(products []catalog.Product) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(products))
	for _, p := range products {
		label := p.Name
		if p.Emoji != "" {
			label = p.Emoji + " " + p.Name
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       fmt.Sprintf("%s ($%s)", label, p.Price.StringFixed(2)),
			Value:       p.ID,
			Description: truncate(p.Description, 100),
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    CustomIDProduct,
				Placeholder: "Choose a product",
				Options:     options,
			},
		}},
	}
}

func paymentMenu() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    CustomIDPayment,
				Placeholder: "Choose a payment method",
				Options: []discordgo.SelectMenuOption{
					{Label: "Card", Value: string(orderdomain.MethodCard), Description: "Pay by card via Stripe"},
					{Label: "Crypto", Value: string(orderdomain.MethodCrypto), Description: "Pay with cryptocurrency"},
				},
			},
		}},
	}
}

func payLinkButton(url string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label: "Pay now",
				Style: discordgo.LinkButton,
				URL:   url,
			},
		}},
	}
}

func parseMethod(value string) (orderdomain.Method, bool) {
	switch orderdomain.Method(value) {
	case orderdomain.MethodCard:
		return orderdomain.MethodCard, true
	case orderdomain.MethodCrypto:
		return orderdomain.MethodCrypto, true
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// isCloseTrigger matches the configured close command exactly, ignoring
// surrounding whitespace only.
func isCloseTrigger(content, trigger string) bool {
	return trigger != "" && strings.TrimSpace(content) == trigger
}
