package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"telemed-platform/internal/auth"
	"telemed-platform/internal/calls"
	"telemed-platform/internal/consultations"
	"telemed-platform/internal/identity"
	"telemed-platform/internal/messaging"
	"telemed-platform/internal/rooms"
	"telemed-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth          *auth.Manager
	Calls         *calls.Controller
	Consultations consultations.Repository
	Messages      *messaging.Notifier
}

/* ===================== AUTH ===================== */

type loginRequest struct {
	UserID      string `json:"user_id"`
	ClinicID    string `json:"clinic_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.ClinicID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, clinic_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{
		UserID:      req.UserID,
		ClinicID:    req.ClinicID,
		Role:        req.Role,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me echoes the authenticated identity; useful for client bootstrapping.
func (h Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	uid, _ := auth.UserID(ctx)
	cid, _ := auth.ClinicID(ctx)
	role, _ := auth.Role(ctx)
	c.JSON(http.StatusOK, gin.H{
		"user_id":      uid,
		"clinic_id":    cid,
		"role":         role,
		"display_name": auth.DisplayName(ctx),
	})
}

/* ===================== CALLS ===================== */

type startCallRequest struct {
	Kind         calls.Kind      `json:"kind"`
	Counterparty identity.Entity `json:"counterparty"`
}

// StartCall provisions a room and returns the session with its join
// credentials. The caller is always the authenticated user.
func (h Handlers) StartCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	ctx := c.Request.Context()
	clinicID, err := auth.ClinicID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "clinic_id required"})
		return
	}
	userID, err := auth.UserID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	role, _ := auth.Role(ctx)
	caller := identity.Entity{
		Kind: identity.EntityKindStaff,
		ID:   userID,
		Name: auth.DisplayName(ctx),
		Role: role,
	}

	s, err := h.Calls.StartCall(ctx, clinicID, caller, req.Counterparty, req.Kind)
	if err != nil {
		h.abortCallError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

// EndCall applies a local hangup. Repeating it for a call already over is
// a success, not an error.
func (h Handlers) EndCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	ctx := c.Request.Context()
	clinicID, err := auth.ClinicID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "clinic_id required"})
		return
	}

	roomID := c.Param("room_id")
	if roomID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "room_id required"})
		return
	}

	s, ok := h.Calls.Get(roomID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	// Tenancy isolation: a clinic can only touch its own calls.
	if s.View().ClinicID != clinicID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}

	if err := h.Calls.EndCall(ctx, roomID, calls.ReasonLocalHangup); err != nil {
		h.abortCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// ActiveCalls lists the authenticated user's non-terminal sessions.
func (h Handlers) ActiveCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": h.Calls.ActiveForUser(userID)})
}

func (h Handlers) abortCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid call request"})
	case errors.Is(err, identity.ErrUnresolvable):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "participant cannot be identified"})
	case errors.Is(err, calls.ErrKindBusy):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a call of this kind is already active"})
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	case errors.Is(err, rooms.ErrProvision):
		logger.From(c.Request.Context()).Error("room provisioning failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "call could not be set up"})
	default:
		logger.From(c.Request.Context()).Error("call request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

/* ===================== CONSULTATIONS ===================== */

// ListConsultations returns the clinic's consultation history, newest
// first.
func (h Handlers) ListConsultations(c *gin.Context) {
	if h.Consultations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "consultations not configured"})
		return
	}
	ctx := c.Request.Context()
	clinicID, err := auth.ClinicID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "clinic_id required"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..200"})
			return
		}
		limit = n
	}

	recs, err := h.Consultations.ListByClinic(ctx, clinicID, limit)
	if err != nil {
		logger.From(ctx).Error("consultation listing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": recs})
}

/* ===================== MESSAGES ===================== */

// UnreadMessages returns the authenticated user's per-conversation unread
// counters.
func (h Handlers) UnreadMessages(c *gin.Context) {
	if h.Messages == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "messaging not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": h.Messages.UnreadCounts(userID)})
}

// MarkConversationRead clears the unread counter for one conversation.
func (h Handlers) MarkConversationRead(c *gin.Context) {
	if h.Messages == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "messaging not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	conversationID := c.Param("conversation_id")
	if conversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversation_id required"})
		return
	}
	h.Messages.MarkRead(userID, conversationID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
