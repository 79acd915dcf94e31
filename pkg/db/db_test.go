package db

import (
	"testing"

	"github.com/smallbiznis/ticketbot/internal/config"
)

func TestPoolLimits(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantIdle int
		wantOpen int
	}{
		{name: "sqlite is single writer", cfg: config.Config{DBType: "sqlite", DBMaxIdleConn: 2, DBMaxOpenConn: 10}, wantIdle: 1, wantOpen: 1},
		{name: "postgres uses config", cfg: config.Config{DBType: "postgres", DBMaxIdleConn: 2, DBMaxOpenConn: 10}, wantIdle: 2, wantOpen: 10},
		{name: "mysql uses config", cfg: config.Config{DBType: "mysql", DBMaxIdleConn: 4, DBMaxOpenConn: 20}, wantIdle: 4, wantOpen: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idle, open := poolLimits(tt.cfg)
			if idle != tt.wantIdle || open != tt.wantOpen {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tt.wantIdle, tt.wantOpen, idle, open)
			}
		})
	}
}
