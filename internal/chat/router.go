package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/audit"
	"github.com/linechat/linechat-server/internal/storage"
)

// Router parses one inbound line and dispatches it to the matching handler.
// Anything that is not a recognized command is a public chat message.
//
// Muted users keep access to /pm, /send, /down and /help; only the public
// message branch is suppressed for them.
type Router struct {
	reg   *Registry
	mod   *Moderation
	bc    *Broadcaster
	files *storage.Store
	rec   audit.Recorder
	log   *zerolog.Logger
}

// NewRouter wires the router against the shared registry, moderation store,
// broadcaster, and the file capability.
func NewRouter(reg *Registry, mod *Moderation, bc *Broadcaster, files *storage.Store, rec audit.Recorder, logger *zerolog.Logger) *Router {
	return &Router{reg: reg, mod: mod, bc: bc, files: files, rec: rec, log: logger}
}

// Dispatch handles one line from s. Errors talking back to the issuing
// session are logged and swallowed: a failing connection surfaces in the
// session's own read loop, never here.
func (rt *Router) Dispatch(ctx context.Context, s *Session, line string) {
	// A user banned while connected is normally force-closed, but if a line
	// slips in before the close lands it gets a denial and nothing else.
	if rt.mod.IsBanned(s.name) {
		rt.reply(ctx, s, rejectBanned)
		return
	}

	if strings.TrimSpace(line) == "/help" {
		rt.reply(ctx, s, formatHelp(s.admin))
		return
	}

	switch {
	case strings.HasPrefix(line, "/pm"):
		rt.handlePrivate(ctx, s, line)
		return
	case strings.HasPrefix(line, "/send"):
		rt.handleUpload(ctx, s, line)
		return
	case strings.HasPrefix(line, "/down"):
		rt.handleDownload(ctx, s, line)
		return
	}

	if s.admin && rt.handleAdmin(ctx, s, line) {
		return
	}

	if rt.mod.IsMuted(s.name) && !s.admin {
		rt.reply(ctx, s, noticeMuted)
		return
	}

	rt.handlePublic(ctx, s, line)
}

func (rt *Router) handlePublic(ctx context.Context, s *Session, line string) {
	now := time.Now()
	rt.log.Info().Str("user", s.name).Msg(line)
	rt.record(ctx, audit.KindMessage, s.name, line)
	rt.bc.BroadcastAll(ctx, formatPublic(now, s.name, line), s.name)
	rt.reply(ctx, s, formatEcho(now, line))
}

func (rt *Router) handlePrivate(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		rt.reply(ctx, s, usagePM)
		return
	}
	target, text := parts[1], parts[2]

	ch, ok := rt.reg.Lookup(target)
	if !ok {
		rt.reply(ctx, s, formatNotFound(target))
		return
	}

	formatted := formatPrivate(s.name, target, text)
	if err := ch.Send(ctx, formatted); err != nil {
		rt.log.Warn().Err(err).Str("target", target).Msg("pm delivery failed")
	}
	rt.reply(ctx, s, formatted)
	rt.log.Info().Str("from", s.name).Str("to", target).Msg("private message")
	rt.record(ctx, audit.KindPrivate, s.name, fmt.Sprintf("%s -> %s", s.name, target))
}

func (rt *Router) handleUpload(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		rt.reply(ctx, s, usageSend)
		return
	}
	name, payload := parts[1], parts[2]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		rt.reply(ctx, s, fmt.Sprintf("Error saving file: %v", err))
		return
	}
	if err := rt.files.Save(name, data); err != nil {
		rt.reply(ctx, s, fmt.Sprintf("Error saving file: %v", err))
		return
	}

	rt.reply(ctx, s, fmt.Sprintf("File '%s' uploaded.", name))
	rt.log.Info().Str("user", s.name).Str("file", name).Int("bytes", len(data)).Msg("file uploaded")
	rt.record(ctx, audit.KindUpload, s.name, name)
}

func (rt *Router) handleDownload(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		rt.reply(ctx, s, usageDown)
		return
	}
	name := parts[1]

	data, err := rt.files.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		rt.reply(ctx, s, fmt.Sprintf("File '%s' not found.", name))
		return
	}
	if err != nil {
		rt.reply(ctx, s, fmt.Sprintf("Error reading file: %v", err))
		return
	}

	rt.reply(ctx, s, formatFilePayload(name, base64.StdEncoding.EncodeToString(data)))
	rt.log.Info().Str("user", s.name).Str("file", name).Msg("file downloaded")
	rt.record(ctx, audit.KindDownload, s.name, name)
}

// handleAdmin runs the admin-only command block. It returns false when the
// line matched none of the admin commands, letting it fall through to the
// public-message branch.
func (rt *Router) handleAdmin(ctx context.Context, s *Session, line string) bool {
	switch {
	case strings.HasPrefix(line, "/ban"):
		rt.handleBan(ctx, s, line)
	case strings.HasPrefix(line, "/war"):
		rt.handleWarn(ctx, s, line)
	case strings.HasPrefix(line, "/mute"):
		rt.handleMute(ctx, s, line)
	case strings.HasPrefix(line, "/unmute"):
		rt.handleUnmute(ctx, s, line)
	case strings.HasPrefix(line, "/list"):
		rt.handleList(ctx, s, line)
	default:
		return false
	}
	return true
}

func (rt *Router) handleBan(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		rt.reply(ctx, s, usageBan)
		return
	}
	target := parts[1]

	ch, ok := rt.reg.Lookup(target)
	if !ok {
		rt.reply(ctx, s, formatNotFound(target))
		return
	}

	rt.mod.Ban(target)
	rt.notify(ctx, target, ch, noticeBannedByAdmin)
	rt.log.Info().Str("admin", s.name).Str("target", target).Msg("user banned")
	rt.record(ctx, audit.KindBan, s.name, target)

	// Broadcast before closing the target: its teardown runs as soon as the
	// close lands, and the departure notice must not overtake the ban notice.
	rt.bc.BroadcastAll(ctx, formatBanBroadcast(target), target)
	rt.closeTarget(target, ch)
}

func (rt *Router) handleWarn(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		rt.reply(ctx, s, usageWar)
		return
	}
	target := parts[1]

	ch, ok := rt.reg.Lookup(target)
	if !ok {
		rt.reply(ctx, s, formatNotFound(target))
		return
	}

	count := rt.mod.Warn(target)
	if count >= WarnLimit {
		rt.mod.Ban(target)
		rt.notify(ctx, target, ch, noticeBannedByWarns)
		rt.log.Info().Str("target", target).Int("warnings", count).Msg("user banned after warnings")
		rt.record(ctx, audit.KindBan, s.name, fmt.Sprintf("%s after %d warnings", target, count))
		rt.bc.BroadcastAll(ctx, formatWarnBanBroadcast(target), target)
		rt.closeTarget(target, ch)
		return
	}

	if err := ch.Send(ctx, formatWarning(count)); err != nil {
		rt.log.Warn().Err(err).Str("target", target).Msg("warn notice delivery failed")
	}
	rt.log.Info().Str("admin", s.name).Str("target", target).Int("warnings", count).Msg("user warned")
	rt.record(ctx, audit.KindWarn, s.name, fmt.Sprintf("%s (%d/%d)", target, count, WarnLimit))
}

func (rt *Router) handleMute(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		rt.reply(ctx, s, usageMute)
		return
	}
	target := parts[1]

	ch, ok := rt.reg.Lookup(target)
	if !ok {
		rt.reply(ctx, s, formatNotFound(target))
		return
	}

	rt.mod.Mute(target)
	if err := ch.Send(ctx, noticeMutedByAdmin); err != nil {
		rt.log.Warn().Err(err).Str("target", target).Msg("mute notice delivery failed")
	}
	rt.reply(ctx, s, fmt.Sprintf("%s is muted.", target))
	rt.log.Info().Str("admin", s.name).Str("target", target).Msg("user muted")
	rt.record(ctx, audit.KindMute, s.name, target)
}

func (rt *Router) handleUnmute(ctx context.Context, s *Session, line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		rt.reply(ctx, s, usageUnmute)
		return
	}
	target := parts[1]

	if !rt.mod.Unmute(target) {
		rt.reply(ctx, s, fmt.Sprintf("%s is not muted.", target))
		return
	}
	if ch, ok := rt.reg.Lookup(target); ok {
		if err := ch.Send(ctx, noticeUnmutedByAdmin); err != nil {
			rt.log.Warn().Err(err).Str("target", target).Msg("unmute notice delivery failed")
		}
	}
	rt.reply(ctx, s, fmt.Sprintf("%s is unmuted.", target))
	rt.log.Info().Str("admin", s.name).Str("target", target).Msg("user unmuted")
	rt.record(ctx, audit.KindUnmute, s.name, target)
}

func (rt *Router) handleList(ctx context.Context, s *Session, line string) {
	if strings.TrimSpace(line) == "/list show" {
		rt.bc.BroadcastRoster(ctx)
		return
	}
	if err := rt.bc.SendRoster(ctx, s.ch); err != nil {
		rt.log.Warn().Err(err).Str("user", s.name).Msg("roster delivery failed")
	}
}

// notify tells target why it is about to be disconnected.
func (rt *Router) notify(ctx context.Context, target string, ch Channel, notice string) {
	if err := ch.Send(ctx, notice); err != nil {
		rt.log.Warn().Err(err).Str("target", target).Msg("close notice delivery failed")
	}
}

// closeTarget force-closes another session's channel. Closing unblocks the
// target's pending read, so its own teardown runs even though the close was
// initiated here.
func (rt *Router) closeTarget(target string, ch Channel) {
	if err := ch.Close(); err != nil {
		rt.log.Warn().Err(err).Str("target", target).Msg("forced close failed")
	}
}

func (rt *Router) reply(ctx context.Context, s *Session, line string) {
	if err := s.ch.Send(ctx, line); err != nil {
		rt.log.Debug().Err(err).Str("user", s.name).Msg("reply delivery failed")
	}
}

func (rt *Router) record(ctx context.Context, kind, actor, detail string) {
	if err := rt.rec.Record(ctx, kind, actor, detail); err != nil {
		rt.log.Warn().Err(err).Str("kind", kind).Msg("audit record failed")
	}
}
