package collab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"docuhub/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsCollabConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "collab").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "collab").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "collab").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "collab").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *wsCollabConn) {
	defer func() {
		log.Info().Str("module", "collab").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Coord.OnDisconnect(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "collab").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("readPump read closed")
				return
			}
			ctl.handleEvent(sid, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(sid core.SessionID, c *wsCollabConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("bad json")
		return
	}

	switch env.Type {
	case "joinDocument":
		ctl.handleJoinDocument(sid, data)
	case "documentChange":
		ctl.handleDocumentChange(sid, data)
	case "leaveDocument":
		ctl.handleLeaveDocument(sid, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "collab").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *wsCollabConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
