package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/db"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/clerk"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime/bus"
)

type Clients struct {
	HTTP     *http.Client
	Supabase supabase.Client
	// SQL is set for the postgres and sqlite drivers.
	SQL      *db.Service
	Verifier clerk.Verifier
	Bus      bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	out := Clients{HTTP: &http.Client{Timeout: 15 * time.Second}}

	switch cfg.StoreDriver {
	case StoreSupabase:
		sb, err := supabase.NewClient(log, cfg.Supabase, out.HTTP)
		if err != nil {
			return out, fmt.Errorf("init supabase: %w", err)
		}
		out.Supabase = sb
	default:
		sql, err := db.Open(log, cfg.DB)
		if err != nil {
			return out, fmt.Errorf("init %s: %w", cfg.StoreDriver, err)
		}
		if err := db.AutoMigrateAll(sql.DB()); err != nil {
			_ = sql.Close()
			return out, fmt.Errorf("%s automigrate: %w", cfg.StoreDriver, err)
		}
		out.SQL = sql
	}

	v, err := clerk.NewVerifier(log, cfg.Clerk, out.HTTP)
	if err != nil {
		out.close(log)
		return out, fmt.Errorf("init clerk verifier: %w", err)
	}
	out.Verifier = v

	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			out.close(log)
			return out, fmt.Errorf("init redis bus: %w", err)
		}
		out.Bus = b
	} else {
		log.Info("REDIS_ADDR not set; chat events stay in-process")
		out.Bus = bus.NewMemoryBus()
	}
	return out, nil
}

func (c Clients) close(log *logger.Logger) {
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil {
			log.Warn("bus close failed", "error", err)
		}
	}
	if c.SQL != nil {
		if err := c.SQL.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}
