package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/audit"
	"github.com/linechat/linechat-server/internal/auth"
	"github.com/linechat/linechat-server/internal/chat"
	"github.com/linechat/linechat-server/internal/config"
	"github.com/linechat/linechat-server/internal/storage"
	transporthttp "github.com/linechat/linechat-server/internal/transport/http"
)

// App wires together the chat core and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	core            *chat.Core
	rec             audit.Recorder
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	files, err := storage.New(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var rec audit.Recorder = audit.Nop{}
	var auditLog transporthttp.AuditReader
	if cfg.AuditDBPath != "" {
		sq, err := audit.NewSQLite(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("init audit log: %w", err)
		}
		rec = sq
		auditLog = sq
		logger.Info().Str("db_path", cfg.AuditDBPath).Msg("audit log initialized")
	}

	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	guard := auth.NewGuard(cfg.Password, cfg.PasswordHash, cfg.AdminPassword, cfg.AdminPasswordHash, tokens)

	core := chat.New(guard, files, rec, logger)
	server := transporthttp.NewServer(core, guard, tokens, auditLog, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		core:            core,
		rec:             rec,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup releases the audit log and other resources.
func (a *App) cleanup() {
	if err := a.rec.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close audit log")
	}
}
