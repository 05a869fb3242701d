package app

import (
	"github.com/gin-gonic/gin"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/http"
	httpH "github.com/sixtyoneeightyjake/mojocodefinal/internal/http/handlers"
	httpMW "github.com/sixtyoneeightyjake/mojocodefinal/internal/http/middleware"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/observability"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	ChatHistory *httpH.ChatHistoryHandler
	GitHubToken *httpH.GitHubTokenHandler
	ChatPage    *httpH.ChatPageHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	var store httpH.Pinger
	if clients.SQL != nil {
		store = clients.SQL
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(store),
		ChatHistory: httpH.NewChatHistoryHandler(log, services.ChatHistory),
		GitHubToken: httpH.NewGitHubTokenHandler(log, services.GitHubToken),
		ChatPage:    httpH.NewChatPageHandler(),
		Realtime:    httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, clients.Verifier, cfg.Clerk.SignInURL, cfg.PublicBaseURL),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        observability.DefaultServiceName,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		AuthMiddleware:     middleware.Auth,
		ChatHistoryHandler: handlers.ChatHistory,
		GitHubTokenHandler: handlers.GitHubToken,
		ChatPageHandler:    handlers.ChatPage,
		RealtimeHandler:    handlers.Realtime,
		HealthHandler:      handlers.Health,
	})
}
