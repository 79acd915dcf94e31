package ticket

import (
	"github.com/smallbiznis/ticketbot/internal/ticket/lock"
	"github.com/smallbiznis/ticketbot/internal/ticket/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ticket.service",
	lock.Module,
	fx.Provide(service.New),
)
