package db

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the configured database and closes it on shutdown.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DBMetricsEnabled {
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.DBName,
			RefreshInterval: 15,
		})); err != nil {
			return nil, fmt.Errorf("register db metrics: %w", err)
		}
	}

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
	}

	log.Info("database opened", zap.String("type", cfg.DBType))
	return conn, nil
}

// Open connects without lifecycle hooks; the ops CLI uses it directly.
func Open(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBType, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	idle, open := poolLimits(cfg)
	if idle > 0 {
		sqlDB.SetMaxIdleConns(idle)
	}
	if open > 0 {
		sqlDB.SetMaxOpenConns(open)
	}
	if cfg.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	}
	return conn, nil
}

// poolLimits returns the idle and open connection caps. SQLite transactions
// must serialize on one connection or concurrent writers get SQLITE_BUSY.
func poolLimits(cfg config.Config) (int, int) {
	if cfg.DBType == "sqlite" {
		return 1, 1
	}
	return cfg.DBMaxIdleConn, cfg.DBMaxOpenConn
}
