package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/auth"
	"github.com/linechat/linechat-server/internal/chat"
	"github.com/linechat/linechat-server/internal/config"
)

// NewServer builds the HTTP server carrying the chat socket and its small
// REST surface. The websocket upgrade must hijack the connection, which
// gin's response writer does not allow, so /ws hangs off the outer mux and
// gin serves only the REST routes.
func NewServer(core *chat.Core, guard *auth.Guard, tokens *auth.TokenIssuer, auditLog AuditReader, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := NewAPIHandlers(core, guard, tokens, auditLog, logger)
	router.GET("/health", api.Health)
	router.GET("/api/stats", api.Stats)
	router.POST("/api/token", api.Token)
	router.GET("/api/audit", api.Audit)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(core, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
