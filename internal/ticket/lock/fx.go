package lock

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ticket.lock",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Clock     clock.Clock
	Log       *zap.Logger
}

// New returns a Redis-backed locker when REDIS_ADDR is set, otherwise an
// in-memory one.
func New(p Params) Locker {
	log := p.Log.Named("ticket.lock")
	if p.Config.RedisAddr == "" {
		log.Info("using in-memory ticket lock")
		return NewMemoryLocker(p.Clock)
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddr})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", p.Config.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	log.Info("using redis ticket lock", zap.String("addr", p.Config.RedisAddr))
	return NewRedisLocker(client)
}
