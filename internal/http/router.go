package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/sixtyoneeightyjake/mojocodefinal/internal/http/handlers"
	httpMW "github.com/sixtyoneeightyjake/mojocodefinal/internal/http/middleware"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	AuthMiddleware *httpMW.AuthMiddleware

	ChatHistoryHandler *httpH.ChatHistoryHandler
	GitHubTokenHandler *httpH.GitHubTokenHandler
	ChatPageHandler    *httpH.ChatPageHandler
	RealtimeHandler    *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "mojocode"
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireUser())
	}

	// Chat page
	if cfg.ChatPageHandler != nil {
		protected.GET("/chat/:id", cfg.ChatPageHandler.Show)
	}

	api := protected.Group("/api")
	api.Use(httpMW.MutationRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		// Chat history
		if cfg.ChatHistoryHandler != nil {
			api.GET("/chat-history", cfg.ChatHistoryHandler.Get)
			api.POST("/chat-history", cfg.ChatHistoryHandler.Post)
			api.DELETE("/chat-history", cfg.ChatHistoryHandler.Delete)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/chat-history/events", cfg.RealtimeHandler.ChatEvents)
		}

		// GitHub token
		if cfg.GitHubTokenHandler != nil {
			api.GET("/github-token", cfg.GitHubTokenHandler.Get)
			api.POST("/github-token", cfg.GitHubTokenHandler.Post)
			api.DELETE("/github-token", cfg.GitHubTokenHandler.Delete)
		}
	}

	return r
}
