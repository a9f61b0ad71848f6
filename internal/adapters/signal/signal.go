// Package signal exchanges WebRTC session descriptions and candidates over a
// single WebSocket, as an alternative to the REST trickle endpoints. One
// socket manages at most one peer connection.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/app"
	"github.com/Pi-Bouf/geckos.io/internal/core"
	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Srv *app.Server
}

func NewController(srv *app.Server) *Controller {
	return &Controller{Srv: srv}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
	peer   domain.ChannelID
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
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

func (c *WsSignalConn) Close() {
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

func (c *WsSignalConn) setPeer(id domain.ChannelID) {
	c.mu.Lock()
	c.peer = id
	c.mu.Unlock()
}

func (c *WsSignalConn) peerID() domain.ChannelID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peer
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("sid", sid).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
