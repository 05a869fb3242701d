package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apphttp "github.com/sixtyoneeightyjake/mojocodefinal/internal/http"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/observability"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Server   *apphttp.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		log.Sync()
		return nil, err
	}
	return NewWithConfig(log, cfg)
}

// NewWithConfig wires the app from an already loaded Config.
func NewWithConfig(log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: observability.DefaultServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	sseHub := realtime.NewSSEHub(log)
	repos := wireRepos(log, clients)
	services := wireServices(log, cfg, repos, clients)
	handlers := wireHandlers(log, clients, services, sseHub)
	middleware := wireMiddleware(log, cfg, clients)
	router := wireRouter(log, cfg, handlers, middleware)

	return &App{
		Log:          log,
		Router:       router,
		Server:       &apphttp.Server{Engine: router},
		Cfg:          cfg,
		Clients:      clients,
		Repos:        repos,
		Services:     services,
		SSEHub:       sseHub,
		otelShutdown: otelShutdown,
	}, nil
}

// Start forwards bus events into the local hub. It is idempotent.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		cancel()
		return fmt.Errorf("start chat event forwarder: %w", err)
	}
	a.cancel = cancel
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("listening", "addr", addr, "store", a.Cfg.StoreDriver)
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown failed", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.close(a.Log)
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
