package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketbot/internal/authorization"
	"github.com/smallbiznis/ticketbot/internal/bot"
	"github.com/smallbiznis/ticketbot/internal/catalog"
	"github.com/smallbiznis/ticketbot/internal/checkout"
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/invoice"
	"github.com/smallbiznis/ticketbot/internal/migration"
	"github.com/smallbiznis/ticketbot/internal/observability"
	"github.com/smallbiznis/ticketbot/internal/order"
	"github.com/smallbiznis/ticketbot/internal/payment"
	"github.com/smallbiznis/ticketbot/internal/providers"
	"github.com/smallbiznis/ticketbot/internal/server"
	"github.com/smallbiznis/ticketbot/internal/ticket"
	"github.com/smallbiznis/ticketbot/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		catalog.Module,
		providers.Module,

		// Functional Domains
		authorization.Module,
		order.Module,
		payment.Module,
		ticket.Module,
		checkout.Module,
		invoice.Module,

		// Surfaces
		server.Module,
		bot.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
