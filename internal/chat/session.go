package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linechat/linechat-server/internal/audit"
)

// teardownTimeout bounds the departure broadcasts of a tearing-down
// session. Teardown cannot use the session context: it is usually already
// canceled by the time the read loop exits.
const teardownTimeout = 5 * time.Second

var (
	errAuthFailed      = errors.New("password rejected")
	errAdminAuthFailed = errors.New("admin password rejected")
	errBanned          = errors.New("username banned")
	errNameTaken       = errors.New("username taken")
)

// Session is the live state of one connected client. The username and admin
// flag are assigned once during the handshake and never change afterwards.
type Session struct {
	id    string
	ch    Channel
	name  string
	admin bool

	teardown sync.Once
}

// ServeChannel runs one connection's session lifecycle to completion:
// authenticate, establish identity, serve the command loop, tear down.
// It returns when the channel closes, the read fails, or the handshake is
// rejected. This is the core's entry point for the transport layer.
func (c *Core) ServeChannel(ctx context.Context, ch Channel) {
	s := &Session{id: uuid.NewString(), ch: ch}
	defer func() {
		if err := ch.Close(); err != nil {
			c.log.Debug().Err(err).Str("session", s.id).Msg("channel close")
		}
	}()

	if err := c.authenticate(ctx, s); err != nil {
		c.log.Debug().Err(err).Str("session", s.id).Msg("handshake rejected")
		return
	}
	if err := c.establishIdentity(ctx, s); err != nil {
		c.log.Debug().Err(err).Str("session", s.id).Msg("identity rejected")
		return
	}

	// From here the session is registered; teardown must run exactly once
	// no matter how the serve loop exits.
	defer c.runTeardown(s)

	c.serve(ctx, s)
}

// authenticate runs the shared-password challenge. Any failure is terminal
// for the session and mutates no shared state.
func (c *Core) authenticate(ctx context.Context, s *Session) error {
	if err := s.ch.Send(ctx, promptPassword); err != nil {
		return err
	}
	candidate, err := s.ch.Receive(ctx)
	if err != nil {
		return err
	}
	if !c.guard.CheckPassword(candidate) {
		c.record(ctx, audit.KindReject, "", "wrong password")
		_ = s.ch.Send(ctx, rejectPassword)
		return errAuthFailed
	}
	return nil
}

// establishIdentity prompts for a username, runs the admin challenge for
// the reserved name, validates against the ban set and the registry, and
// registers the session. Registration itself is the registry's atomic
// check-and-insert, so concurrent claims on the same name cannot both win.
func (c *Core) establishIdentity(ctx context.Context, s *Session) error {
	if err := s.ch.Send(ctx, promptUsername); err != nil {
		return err
	}
	name, err := s.ch.Receive(ctx)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	admin := false
	if name == adminUsername {
		if err := s.ch.Send(ctx, promptAdminPassword); err != nil {
			return err
		}
		candidate, err := s.ch.Receive(ctx)
		if err != nil {
			return err
		}
		if !c.guard.CheckAdminPassword(candidate) {
			c.record(ctx, audit.KindReject, name, "wrong admin password")
			_ = s.ch.Send(ctx, rejectAdminPassword)
			return errAdminAuthFailed
		}
		admin = true
	}

	if c.mod.IsBanned(name) {
		c.record(ctx, audit.KindReject, name, "banned")
		_ = s.ch.Send(ctx, rejectBanned)
		return errBanned
	}
	if !c.reg.TryRegister(name, s.ch) {
		_ = s.ch.Send(ctx, rejectNameTaken)
		return errNameTaken
	}

	s.name = name
	s.admin = admin
	c.mod.InitWarnings(name)

	c.log.Info().Str("user", name).Bool("admin", admin).Str("session", s.id).Msg("user connected")
	c.record(ctx, audit.KindConnect, name, "connected")

	c.bc.BroadcastAll(ctx, formatJoined(name), "")
	c.bc.BroadcastRoster(ctx)
	if err := s.ch.Send(ctx, formatWelcome(name)); err != nil {
		c.log.Debug().Err(err).Str("user", name).Msg("welcome delivery failed")
	}
	return nil
}

// serve is the active-state loop: read a line, dispatch it, repeat.
// Channel closure and read errors both end the loop as a normal disconnect.
func (c *Core) serve(ctx context.Context, s *Session) {
	for {
		line, err := s.ch.Receive(ctx)
		if err != nil {
			c.log.Debug().Err(err).Str("user", s.name).Msg("read loop ended")
			return
		}
		c.router.Dispatch(ctx, s, line)
	}
}

// runTeardown deregisters the session and announces the departure. Guarded
// by sync.Once so a session closed by an admin while also failing its own
// read still tears down exactly once.
func (c *Core) runTeardown(s *Session) {
	s.teardown.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		c.reg.Remove(s.name)
		c.mod.Forget(s.name)

		c.log.Info().Str("user", s.name).Str("session", s.id).Msg("user disconnected")
		c.record(ctx, audit.KindDisconnect, s.name, "disconnected")

		c.bc.BroadcastAll(ctx, formatLeft(s.name), "")
		c.bc.BroadcastRoster(ctx)
	})
}
