package main

import (
	"database/sql"
	"net/http"
	"time"

	"telemed-platform/internal/auth"
	"telemed-platform/internal/httpapi"
	"telemed-platform/internal/rbac"
	"telemed-platform/internal/rooms"
	"telemed-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	auth     *auth.Manager
	db       *sql.DB
	handlers httpapi.Handlers
	ws       httpapi.WS
	provider rooms.Provider
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	authMW := auth.RequireAccessToken(deps.auth)

	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms_provider": deps.provider.Name()})
	})

	r.POST("/v1/auth/login", deps.handlers.Login)

	// Signaling websocket. Browsers cannot set Authorization headers on
	// upgrade requests; the auth middleware accepts ?token= there.
	r.GET("/ws", authMW, deps.ws.Serve)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW, rbac.RequireClinic())
	{
		v1.GET("/me", deps.handlers.Me)

		callGroup := v1.Group("/calls")
		callGroup.Use(rbac.RequireAnyRole(rbac.CallCapableRoles()...))
		{
			callGroup.POST("/start", deps.handlers.StartCall)
			callGroup.POST("/:room_id/end", deps.handlers.EndCall)
			callGroup.GET("/active", deps.handlers.ActiveCalls)
		}

		v1.GET("/consultations", deps.handlers.ListConsultations)

		msgGroup := v1.Group("/messages")
		{
			msgGroup.GET("/unread", deps.handlers.UnreadMessages)
			msgGroup.POST("/:conversation_id/read", deps.handlers.MarkConversationRead)
		}
	}
}
