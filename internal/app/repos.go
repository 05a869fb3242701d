package app

import (
	authrepo "github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/auth"
	chatrepo "github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/chat"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type Repos struct {
	ChatSession   chatrepo.ChatSessionRepo
	ProviderToken authrepo.ProviderTokenRepo
}

// wireRepos picks the gateway-backed repos when no SQL store is open.
func wireRepos(log *logger.Logger, clients Clients) Repos {
	log.Info("Wiring repos...")
	if clients.SQL != nil {
		gdb := clients.SQL.DB()
		return Repos{
			ChatSession:   chatrepo.NewChatSessionRepo(gdb, log),
			ProviderToken: authrepo.NewProviderTokenRepo(gdb, log),
		}
	}
	return Repos{
		ChatSession:   chatrepo.NewSupabaseChatSessionRepo(clients.Supabase, log),
		ProviderToken: authrepo.NewSupabaseProviderTokenRepo(clients.Supabase, log),
	}
}
