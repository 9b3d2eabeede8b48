package chat

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/audit"
	"github.com/linechat/linechat-server/internal/auth"
	"github.com/linechat/linechat-server/internal/storage"
)

// Core owns the shared chat state: the identity registry, the moderation
// store, the broadcaster, and the command router. One Core instance is
// constructed at process start and shared by every session goroutine.
type Core struct {
	reg    *Registry
	mod    *Moderation
	bc     *Broadcaster
	router *Router
	guard  *auth.Guard
	rec    audit.Recorder
	log    *zerolog.Logger
}

// New wires a Core from its collaborators. A nil recorder disables auditing.
func New(guard *auth.Guard, files *storage.Store, rec audit.Recorder, logger *zerolog.Logger) *Core {
	if rec == nil {
		rec = audit.Nop{}
	}

	reg := NewRegistry()
	mod := NewModeration()
	bc := NewBroadcaster(reg, logger)

	return &Core{
		reg:    reg,
		mod:    mod,
		bc:     bc,
		router: NewRouter(reg, mod, bc, files, rec, logger),
		guard:  guard,
		rec:    rec,
		log:    logger,
	}
}

// OnlineCount returns the number of registered users, for the status surface.
func (c *Core) OnlineCount() int {
	return c.reg.Count()
}

// OnlineUsers returns the current roster in join order.
func (c *Core) OnlineUsers() []string {
	return c.reg.Snapshot()
}

func (c *Core) record(ctx context.Context, kind, actor, detail string) {
	if err := c.rec.Record(ctx, kind, actor, detail); err != nil {
		c.log.Warn().Err(err).Str("kind", kind).Msg("audit record failed")
	}
}
