package http

import (
	"context"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/chat"
)

// sendTimeout bounds a single frame write so a stalled peer cannot hold a
// broadcasting session forever; the core reaps entries whose sends fail.
const sendTimeout = 10 * time.Second

// wsChannel adapts one websocket connection to the core's line Channel.
// Sends may come from many session goroutines (broadcasts, admin notices),
// so writes are serialized.
type wsChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsChannel) Send(ctx context.Context, line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (c *wsChannel) Receive(ctx context.Context) (string, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close unblocks any pending Read on the connection, which is how a forced
// disconnect reaches the target session's read loop.
func (c *wsChannel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// WSHandler upgrades HTTP connections and runs the chat session lifecycle
// to completion on the request goroutine.
type WSHandler struct {
	core *chat.Core
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(core *chat.Core, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{core: core, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	ch := &wsChannel{conn: conn}
	defer func() { _ = ch.Close() }()

	h.core.ServeChannel(r.Context(), ch)
}
