package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/catalog"
	"github.com/smallbiznis/ticketbot/internal/checkout"
	invoicedomain "github.com/smallbiznis/ticketbot/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"in progress", ticketdomain.ErrTicketInProgress, "Please wait, your ticket is being created."},
		{"existing", &ticketdomain.ExistingTicketError{ChannelID: "C7"}, "You already have an open ticket: <#C7>"},
		{"forbidden close", invoicedomain.ErrForbidden, "You are not allowed to do that."},
		{"unknown product", checkout.ErrProductNotFound, "That product is no longer available."},
		{"pending", checkout.ErrOrderPending, "This ticket already has a pending order."},
		{"paid", fmt.Errorf("start: %w", checkout.ErrAlreadyPaid), "This order is already paid."},
		{"wrong channel", checkout.ErrWrongChannel, "That order belongs to another ticket."},
		{"order missing", orderdomain.ErrOrderNotFound, "Order not found. Choose a product first."},
		{"no provider", paymentdomain.ErrProviderNotFound, "That payment method is not available right now."},
		{"gateway", &paymentdomain.GatewayError{Provider: "stripe", StatusCode: 400, Message: "amount too small"}, "The payment provider rejected the request: amount too small"},
		{"other", errors.New("boom"), genericFailure},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestActorFromMember(t *testing.T) {
	user := &discordgo.User{ID: "U1", Username: "buyer"}
	member := &discordgo.Member{User: user, Roles: []string{"R1", "R2"}}

	actor := actorFromMember(nil, member, discordgo.PermissionManageChannels)
	assert.Equal(t, "U1", actor.UserID)
	assert.Equal(t, []string{"R1", "R2"}, actor.RoleIDs)
	assert.True(t, actor.ManageChannels)
	assert.False(t, actor.Administrator)

	admin := actorFromMember(user, nil, discordgo.PermissionAdministrator)
	assert.True(t, admin.Administrator)
	assert.Empty(t, admin.RoleIDs)
}

func TestInteractionActorUsesMember(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "S1", Username: "staff"},
			Roles:       []string{"SUPPORT"},
			Permissions: discordgo.PermissionAdministrator,
		},
	}}
	actor := interactionActor(i)
	assert.Equal(t, "S1", actor.UserID)
	assert.True(t, actor.Administrator)
	assert.True(t, actor.HasRole("SUPPORT"))
}

func TestProductMenu(t *testing.T) {
	holder, err := catalog.NewStatic(
		catalog.Product{ID: "gold-pack", Name: "Gold Pack", Emoji: "🥇", Price: decimal.RequireFromString("9.99")},
		catalog.Product{ID: "silver-pack", Name: "Silver Pack", Price: decimal.RequireFromString("4.5")},
	)
	require.NoError(t, err)

	rows := productMenu(holder.Products())
	require.Len(t, rows, 1)
	row, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)

	assert.Equal(t, CustomIDProduct, menu.CustomID)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "silver-pack", menu.Options[0].Value)
	assert.Equal(t, "Silver Pack ($4.50)", menu.Options[0].Label)
	assert.Equal(t, "🥇 Gold Pack ($9.99)", menu.Options[1].Label)
}

func TestPaymentMenuValuesParse(t *testing.T) {
	row := paymentMenu()[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, CustomIDPayment, menu.CustomID)
	for _, opt := range menu.Options {
		_, ok := parseMethod(opt.Value)
		assert.True(t, ok, opt.Value)
	}
	_, ok := parseMethod("paypal")
	assert.False(t, ok)
}

func TestPanelCommandIsAdministratorOnly(t *testing.T) {
	cmd := panelCommand()
	assert.Equal(t, CommandPanel, cmd.Name)
	require.NotNil(t, cmd.DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionAdministrator), *cmd.DefaultMemberPermissions)

	data := panelMessage("Store")
	button := data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, CustomIDOpen, button.CustomID)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestIsCloseTrigger(t *testing.T) {
	assert.True(t, isCloseTrigger("+close", "+close"))
	assert.True(t, isCloseTrigger("  +close\n", "+close"))
	assert.False(t, isCloseTrigger("+CLOSE", "+close"))
	assert.False(t, isCloseTrigger("+Close", "+close"))
	assert.False(t, isCloseTrigger("+close now", "+close"))
	assert.False(t, isCloseTrigger("", ""))
}
