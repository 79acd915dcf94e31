package providers

import (
	"github.com/smallbiznis/ticketbot/internal/providers/discord"
	"github.com/smallbiznis/ticketbot/internal/providers/pdf"
	"github.com/smallbiznis/ticketbot/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	discord.Module,
	pdf.Module,
	storage.Module,
)
