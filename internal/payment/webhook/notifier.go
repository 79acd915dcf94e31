package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/ticketbot/internal/config"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	"github.com/smallbiznis/ticketbot/internal/providers/discord"
	"go.uber.org/zap"
)

// ChannelNotifier posts paid confirmations into the ticket channel and,
// when configured, the audit log channel.
type ChannelNotifier struct {
	discord      discord.Provider
	log          *zap.Logger
	logChannelID string
}

func NewChannelNotifier(provider discord.Provider, cfg config.Config, log *zap.Logger) paymentdomain.PaidNotifier {
	return &ChannelNotifier{
		discord:      provider,
		log:          log.Named("payment.notifier"),
		logChannelID: strings.TrimSpace(cfg.Discord.LogChannelID),
	}
}

func (n *ChannelNotifier) NotifyPaid(ctx context.Context, order *orderdomain.Order) error {
	if order == nil {
		return nil
	}

	err := n.discord.SendMessage(ctx, order.ChannelID, discord.Message{
		Content: PaidMessage(order),
	})

	if n.logChannelID != "" {
		audit := fmt.Sprintf("Payment received: order `%s` (%s) by <@%s> via %s, %s",
			order.InvoiceID(), order.Product.Name, order.UserID, order.Payment.Provider, order.DisplayAmount())
		if logErr := n.discord.SendMessage(ctx, n.logChannelID, discord.Message{Content: audit}); logErr != nil {
			n.log.Warn("audit log post failed", zap.String("order_id", order.ID), zap.Error(logErr))
		}
	}
	return err
}

// PaidMessage is the confirmation shown to the buyer.
func PaidMessage(order *orderdomain.Order) string {
	return fmt.Sprintf("Payment confirmed for **%s** (%s). Order `%s` is now paid. A staff member will deliver shortly.",
		order.Product.Name, order.DisplayAmount(), order.InvoiceID())
}
