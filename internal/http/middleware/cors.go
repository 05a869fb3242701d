package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
}

// CORS allows credentialed requests from origins, or the local dev servers when empty.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultDevOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders:    []string{headerTraceID, headerRequestID, "Location"},
		AllowCredentials: true,
	})
}
