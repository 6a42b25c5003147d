package httpapi

import (
	"net/http"

	"telemed-platform/internal/auth"
	"telemed-platform/internal/signaling"
	"telemed-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS serves the signaling websocket. Auth runs before this handler; the
// connection is registered under the authenticated user identifier so
// outbound events can be addressed by user.
type WS struct {
	Hub      *signaling.Hub
	Upgrader websocket.Upgrader
}

func (w WS) Serve(c *gin.Context) {
	if w.Hub == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "signaling not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	conn, err := w.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		logger.From(c.Request.Context()).Warn("websocket upgrade failed", "err", err)
		return
	}

	// Blocks for the lifetime of the connection.
	w.Hub.HandleConn(c.Request.Context(), userID, conn)
}
