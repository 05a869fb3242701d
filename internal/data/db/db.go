package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver      string
	PostgresDSN string
	SQLitePath  string
	// Silent drops gorm's own statement log (tests).
	Silent bool
}

// PostgresDSNFromEnv prefers POSTGRES_DSN and otherwise assembles one from
// the POSTGRES_HOST/PORT/USER/PASSWORD/NAME parts.
func PostgresDSNFromEnv() string {
	if dsn := envutil.String("POSTGRES_DSN", ""); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envutil.String("POSTGRES_USER", "postgres"),
		envutil.String("POSTGRES_PASSWORD", ""),
		envutil.String("POSTGRES_HOST", "localhost"),
		envutil.String("POSTGRES_PORT", "5432"),
		envutil.String("POSTGRES_NAME", "mojocode"),
	)
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

func Open(logg *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	if cfg.Silent {
		gormLog = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		path := cfg.SQLitePath
		if strings.TrimSpace(path) == "" {
			path = "mojocode.db"
		}
		db, err = gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	serviceLog.Info("database connected", "driver", driver)
	return &Service{db: db, log: serviceLog, driver: driver}, nil
}

func (s *Service) DB() *gorm.DB   { return s.db }
func (s *Service) Driver() string { return s.driver }

func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
