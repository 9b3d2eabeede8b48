package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/audit"
	"github.com/linechat/linechat-server/internal/auth"
	"github.com/linechat/linechat-server/internal/chat"
)

// AuditReader is the read side of the audit log exposed to admins.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// APIHandlers provides the HTTP surface next to the chat socket: health,
// online status, handshake-token minting, and the admin audit view.
type APIHandlers struct {
	core     *chat.Core
	guard    *auth.Guard
	tokens   *auth.TokenIssuer
	auditLog AuditReader
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. auditLog may be nil
// when the audit log is disabled.
func NewAPIHandlers(core *chat.Core, guard *auth.Guard, tokens *auth.TokenIssuer, auditLog AuditReader, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		core:     core,
		guard:    guard,
		tokens:   tokens,
		auditLog: auditLog,
		log:      logger,
	}
}

// TokenRequest represents the token-minting request body.
type TokenRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the token-minting response body.
type TokenResponse struct {
	Token string `json:"token"`
}

// StatsResponse reports the online roster for the status surface.
type StatsResponse struct {
	Online int      `json:"online"`
	Users  []string `json:"users"`
}

// AuditEntry is the JSON shape of one audit record.
type AuditEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles liveness checks.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Stats reports the current online count and roster.
// GET /api/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Online: h.core.OnlineCount(),
		Users:  h.core.OnlineUsers(),
	})
}

// Token exchanges the chat password for a short-lived handshake token that
// may be presented in place of the password on the socket.
// POST /api/token
func (h *APIHandlers) Token(c *gin.Context) {
	if h.tokens == nil || !h.tokens.Enabled() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "token auth disabled"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid token request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !h.guard.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "wrong password"})
		return
	}

	token, err := h.tokens.Issue()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Audit returns recent audit records, newest first, to callers presenting
// the admin password as a bearer credential.
// GET /api/audit?limit=N
func (h *APIHandlers) Audit(c *gin.Context) {
	if h.auditLog == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "audit log disabled"})
		return
	}

	password := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !h.guard.CheckAdminPassword(password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "admin password required"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.auditLog.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read audit log")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]AuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntry{
			ID:        e.ID,
			Kind:      e.Kind,
			Actor:     e.Actor,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
