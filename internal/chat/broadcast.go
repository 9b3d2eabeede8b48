package chat

import (
	"context"

	"github.com/rs/zerolog"
)

// Broadcaster fans a line out to every registered channel. It never
// propagates a recipient's send failure to the caller: a failing channel is
// skipped for the rest of the round and its registry entry is reaped.
type Broadcaster struct {
	reg *Registry
	log *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(reg *Registry, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{reg: reg, log: logger}
}

// BroadcastAll delivers line to every registered channel except the one
// owned by exclude (empty string excludes nobody). Recipients registered
// after the snapshot is taken are not included in this round.
//
// Delivery runs over a snapshot and removals happen in a second pass, so a
// dead entry never invalidates the iteration.
func (b *Broadcaster) BroadcastAll(ctx context.Context, line string, exclude string) {
	var dead []string
	for _, e := range b.reg.entries() {
		if exclude != "" && e.name == exclude {
			continue
		}
		if err := e.ch.Send(ctx, line); err != nil {
			b.log.Warn().Err(err).Str("user", e.name).Msg("broadcast send failed, reaping entry")
			dead = append(dead, e.name)
		}
	}
	for _, name := range dead {
		b.reg.Remove(name)
	}
}

// SendRoster sends the current online-user listing to a single channel.
func (b *Broadcaster) SendRoster(ctx context.Context, ch Channel) error {
	return ch.Send(ctx, formatRoster(b.reg.Snapshot()))
}

// BroadcastRoster broadcasts the current online-user listing to everyone.
func (b *Broadcaster) BroadcastRoster(ctx context.Context) {
	b.BroadcastAll(ctx, formatRoster(b.reg.Snapshot()), "")
}
