package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/smallbiznis/ticketbot/internal/catalog"
	"github.com/smallbiznis/ticketbot/internal/checkout"
	"github.com/smallbiznis/ticketbot/internal/config"
	invoicedomain "github.com/smallbiznis/ticketbot/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const handlerTimeout = 30 * time.Second

var Module = fx.Module("bot",
	fx.Provide(New),
	fx.Invoke(Register),
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Session  *discordgo.Session
	Catalog  *catalog.Holder
	Tickets  ticketdomain.Service
	Checkout *checkout.Service
	Invoices invoicedomain.Service
}

type Bot struct {
	cfg      config.Config
	log      *zap.Logger
	session  *discordgo.Session
	catalog  *catalog.Holder
	tickets  ticketdomain.Service
	checkout *checkout.Service
	invoices invoicedomain.Service
}

func New(p Params) *Bot {
	return &Bot{
		cfg:      p.Config,
		log:      p.Log.Named("bot"),
		session:  p.Session,
		catalog:  p.Catalog,
		tickets:  p.Tickets,
		checkout: p.Checkout,
		invoices: p.Invoices,
	}
}

// Register attaches the handlers and ties the gateway connection to the app
// lifecycle.
func Register(lc fx.Lifecycle, b *Bot) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			b.session.AddHandler(b.onReady)
			b.session.AddHandler(b.onInteraction)
			b.session.AddHandler(b.onMessageCreate)
			if err := b.session.Open(); err != nil {
				return fmt.Errorf("open discord session: %w", err)
			}
			b.log.Info("discord session opened")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			b.log.Info("closing discord session")
			return b.session.Close()
		},
	})
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("bot ready", zap.String("user", r.User.String()), zap.Int("guilds", len(r.Guilds)))

	appID := b.cfg.Discord.AppID
	if appID == "" {
		appID = r.User.ID
	}
	if _, err := s.ApplicationCommandCreate(appID, b.cfg.Discord.GuildID, panelCommand()); err != nil {
		b.log.Error("register panel command failed", zap.Error(err))
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer b.recoverInteraction(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == CommandPanel {
			b.handlePanel(ctx, s, i)
		}
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case CustomIDOpen:
			b.handleOpen(ctx, s, i)
		case CustomIDProduct:
			b.handleProduct(ctx, s, i)
		case CustomIDPayment:
			b.handlePayment(ctx, s, i)
		}
	}
}

func (b *Bot) recoverInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if r := recover(); r != nil {
		b.log.Error("interaction handler panic", zap.Any("panic", r), zap.String("interaction_id", i.ID))
		b.replyEphemeral(s, i, genericFailure)
	}
}

func (b *Bot) handlePanel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.tickets.CanPostPanel(ctx, interactionActor(i)) {
		b.replyEphemeral(s, i, userMessage(ticketdomain.ErrForbidden))
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: panelMessage(b.cfg.StoreName),
	})
	if err != nil {
		b.log.Warn("post panel failed", zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
}

func (b *Bot) handleOpen(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := interactionActor(i)
	if err := b.deferEphemeral(s, i); err != nil {
		b.log.Warn("defer interaction failed", zap.Error(err))
		return
	}

	ticket, err := b.tickets.Open(ctx, ticketdomain.OpenRequest{
		GuildID: i.GuildID,
		UserID:  actor.UserID,
		UserTag: actor.Tag,
	})
	if err != nil {
		b.log.Info("open ticket rejected", zap.String("user_id", actor.UserID), zap.Error(err))
		b.editReply(s, i, userMessage(err))
		return
	}

	_, err = s.ChannelMessageSendComplex(ticket.ChannelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("Welcome <@%s>! Choose a product to get started.", actor.UserID),
		Components: productMenu(b.catalog.Products()),
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.log.Warn("post product menu failed", zap.String("channel_id", ticket.ChannelID), zap.Error(err))
	}
	b.editReply(s, i, fmt.Sprintf("Your ticket is ready: <#%s>", ticket.ChannelID))
}

func (b *Bot) handleProduct(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := interactionActor(i)
	name := b.channelName(s, i.ChannelID)
	if !b.tickets.CanAct(ctx, actor, name) {
		b.replyEphemeral(s, i, userMessage(ticketdomain.ErrForbidden))
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		b.replyEphemeral(s, i, userMessage(checkout.ErrProductNotFound))
		return
	}

	// Staff may pick on the buyer's behalf; the order always belongs to the
	// channel owner.
	buyerID, buyerTag := actor.UserID, actor.Tag
	if owner := ticketdomain.OwnerFromChannelName(name); owner != "" && owner != actor.UserID {
		buyerID, buyerTag = owner, ""
	}

	order, err := b.checkout.SelectProduct(ctx, checkout.SelectRequest{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    buyerID,
		UserTag:   buyerTag,
		ProductID: values[0],
	})
	if err != nil {
		b.replyEphemeral(s, i, userMessage(err))
		return
	}

	b.respond(s, i, &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Order `%s`: **%s** for %s. Choose how you want to pay.",
			order.InvoiceID(), order.Product.Name, order.NominalAmount()),
		Components: paymentMenu(),
	})
}

func (b *Bot) handlePayment(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := interactionActor(i)
	if !b.tickets.CanAct(ctx, actor, b.channelName(s, i.ChannelID)) {
		b.replyEphemeral(s, i, userMessage(ticketdomain.ErrForbidden))
		return
	}
	var method orderdomain.Method
	ok := false
	if values := i.MessageComponentData().Values; len(values) > 0 {
		method, ok = parseMethod(values[0])
	}
	if !ok {
		b.replyEphemeral(s, i, "Unknown payment method.")
		return
	}

	if err := b.deferReply(s, i); err != nil {
		b.log.Warn("defer interaction failed", zap.Error(err))
		return
	}

	link, err := b.checkout.StartPayment(ctx, checkout.PaymentRequest{
		ChannelID: i.ChannelID,
		Method:    method,
	})
	if err != nil {
		b.editReply(s, i, userMessage(err))
		return
	}

	content := fmt.Sprintf("Pay %s for order `%s` using the link below. This channel is updated automatically once payment is confirmed.",
		link.Order.NominalAmount(), link.Order.InvoiceID())
	components := payLinkButton(link.URL)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}); err != nil {
		b.log.Warn("edit interaction failed", zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !isCloseTrigger(m.Content, b.cfg.Ticket.CloseTrigger) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("close handler panic", zap.Any("panic", r), zap.String("channel_id", m.ChannelID))
			b.send(s, m.ChannelID, genericFailure)
		}
	}()

	name := b.channelName(s, m.ChannelID)
	if !ticketdomain.IsTicketChannel(name) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var permissions int64
	if s.State != nil {
		if p, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
			permissions = p
		}
	}

	_, err := b.invoices.Close(ctx, invoicedomain.CloseRequest{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: name,
		Actor:       actorFromMember(m.Author, m.Member, permissions),
	})
	if err != nil {
		b.log.Info("close rejected", zap.String("channel_id", m.ChannelID), zap.Error(err))
		b.send(s, m.ChannelID, userMessage(err))
	}
}

func (b *Bot) channelName(s *discordgo.Session, channelID string) string {
	if s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil && ch != nil {
			return ch.Name
		}
	}
	ch, err := s.Channel(channelID)
	if err != nil {
		b.log.Warn("channel lookup failed", zap.String("channel_id", channelID), zap.Error(err))
		return ""
	}
	return ch.Name
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.log.Warn("interaction response failed", zap.Error(err))
	}
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	b.respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (b *Bot) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.log.Warn("edit interaction failed", zap.Error(err))
	}
}

func (b *Bot) send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		b.log.Warn("send message failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}
