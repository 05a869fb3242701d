package app

import (
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/services"
)

type Services struct {
	ChatHistory services.ChatHistoryService
	GitHubToken services.GitHubTokenService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")
	if cfg.TokenSecret == "" {
		log.Warn("TOKEN_ENCRYPTION_SECRET not set; github token routes will fail")
	}
	notifier := services.NewChatHistoryNotifier(&services.BusEmitter{Bus: clients.Bus, Log: log})
	return Services{
		ChatHistory: services.NewChatHistoryService(log, repos.ChatSession, notifier),
		GitHubToken: services.NewGitHubTokenService(log, repos.ProviderToken, cfg.TokenSecret),
	}
}
