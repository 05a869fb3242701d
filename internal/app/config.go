package app

import (
	"fmt"
	"strings"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/db"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/apierr"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/clerk"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime/bus"
)

const (
	StoreSupabase = "supabase"
	StorePostgres = db.DriverPostgres
	StoreSQLite   = db.DriverSQLite
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	Version     string

	StoreDriver string
	Supabase    supabase.Config
	DB          db.Config

	// TokenSecret may be empty; the GitHub token routes then answer 500.
	TokenSecret string

	Clerk         clerk.Config
	PublicBaseURL string
	CORSOrigins   []string

	RateLimitRPS   float64
	RateLimitBurst int

	Redis bus.RedisConfig
}

// LoadConfig reads the process environment. Settings the selected store or
// the auth gate cannot run without are reported as configuration errors.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		Environment:    envutil.String("APP_ENV", "development"),
		Version:        envutil.String("APP_VERSION", ""),
		StoreDriver:    strings.ToLower(envutil.String("STORE_DRIVER", StoreSupabase)),
		TokenSecret:    envutil.FirstVerbatim("TOKEN_ENCRYPTION_SECRET", "SUPABASE_JWT_SECRET"),
		PublicBaseURL:  envutil.String("PUBLIC_BASE_URL", ""),
		CORSOrigins:    envutil.List("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:   envutil.Float("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envutil.Int("RATE_LIMIT_BURST", 40),
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			Channel:  envutil.String("REDIS_CHANNEL", ""),
		},
	}

	switch cfg.StoreDriver {
	case StoreSupabase:
		sb, err := supabase.LoadConfig()
		if err != nil {
			return cfg, err
		}
		cfg.Supabase = sb
	case StorePostgres:
		cfg.DB = db.Config{Driver: db.DriverPostgres, PostgresDSN: db.PostgresDSNFromEnv()}
	case StoreSQLite:
		cfg.DB = db.Config{Driver: db.DriverSQLite, SQLitePath: envutil.String("SQLITE_PATH", "mojocode.db")}
	default:
		return cfg, apierr.Configuration(fmt.Sprintf("unknown STORE_DRIVER %q (want supabase, postgres or sqlite)", cfg.StoreDriver))
	}

	ck, err := clerk.LoadConfig()
	if err != nil {
		return cfg, err
	}
	cfg.Clerk = ck
	return cfg, nil
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
