// Package signal is the websocket signaling adapter: it owns the transport
// connections and routes inbound messages into the app layer.
package signal

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/app"
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller drives one signaling endpoint. With Media set it serves the SFU
// variant (offers go to the media orchestrator); with Media nil it is a pure
// relay and offer/answer/candidate need a "to" target.
type Controller struct {
	Registry  *app.Registry
	Rooms     *app.Rooms
	Broadcast *app.Broadcaster
	Media     *app.MediaManager

	ReadLimit  int64
	PingPeriod time.Duration
}

// HandleWS upgrades the request and runs the connection until it drops.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(ws)
	id := ctl.Registry.Register(conn)
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go conn.writePump(ctx, ctl.PingPeriod)
	ctl.Broadcast.Relay(id, idMsg{Type: "id", ID: id})

	ctl.readPump(ctx, id, conn)

	ctl.leaveRoom(ctx, id)
	ctl.Registry.Unregister(id)
	conn.Close()
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("client disconnected")
}

func (ctl *Controller) readPump(ctx context.Context, id domain.ClientID, c *wsConn) {
	c.conn.SetReadLimit(ctl.ReadLimit)
	pongWait := ctl.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.Dispatch(ctx, id, data)
		}
	}
}

// leaveRoom detaches the client from its room, reassigns the host if needed,
// notifies the remaining members, and tears the media session down when the
// room empties. No-op if the client was not in a room.
func (ctl *Controller) leaveRoom(_ context.Context, id domain.ClientID) {
	room, had := ctl.Registry.ClearRoom(id)
	if !had {
		return
	}
	res := ctl.Rooms.Leave(id, room)
	if !res.WasMember {
		return
	}
	if res.HostChanged {
		ctl.Broadcast.Broadcast(room, hostChangedMsg{Type: "host_changed", HostID: res.NewHost})
	}
	ctl.Broadcast.Broadcast(room, leaveMsg{Type: "leave", From: id})
	if res.Empty && ctl.Media != nil {
		ctl.Media.Teardown(room)
	}
}
