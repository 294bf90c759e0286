// Package collab is the WebSocket transport for the realtime
// collaboration coordinator. Every connection is admitted through token
// verification before the upgrade; an unadmitted connection never reaches
// a room operation.
package collab

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"docuhub/internal/app"
	"docuhub/internal/auth"
	"docuhub/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord      *app.Coordinator
	Tokens     *auth.TokenManager
	ReadLimit  int64
	SendBuffer int
}

func NewController(coord *app.Coordinator, tokens *auth.TokenManager, readLimit int64, sendBuffer int) *Controller {
	return &Controller{
		Coord:      coord,
		Tokens:     tokens,
		ReadLimit:  readLimit,
		SendBuffer: sendBuffer,
	}
}

type wsCollabConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsCollabConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsCollabConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleCollab admits and runs one realtime connection. The credential
// travels in the `token` query parameter of the upgrade request and is
// verified before the handshake is accepted.
func (ctl *Controller) HandleCollab(ctx context.Context, c *gin.Context) {
	credential := c.Query("token")
	user, err := ctl.Tokens.Verify(credential)
	if err != nil {
		if errors.Is(err, auth.ErrTokenMissing) {
			log.Warn().Str("module", "collab").Msg("handshake without token refused")
		} else {
			log.Warn().Str("module", "collab").Msg("handshake with invalid token refused")
		}
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "collab").Str("sid", string(sid)).Str("user", user.Username).Msg("connection admitted")

	conn := &wsCollabConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}
	sess := core.NewMemberSession(user, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Registry.Bind(sid, user, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
