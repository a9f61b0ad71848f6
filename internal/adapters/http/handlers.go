package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/app"
	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

type Handlers struct {
	Srv *app.Server
}

// CreateConnection starts a new peer and returns the server-side offer. An
// optional body {"room": "..."} pre-joins the channel once it opens.
func (h *Handlers) CreateConnection(ctx context.Context, c *gin.Context) {
	var p struct {
		Room string `json:"room"`
	}
	_ = c.ShouldBindJSON(&p) // empty body is fine

	var room domain.RoomID
	if p.Room != "" {
		parsed, err := domain.ParseRoomID(p.Room)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		room = parsed
	}

	offer, err := h.Srv.CreateConnection(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create connection")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create connection"})
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handlers) RemoteDescription(c *gin.Context) {
	id := domain.ChannelID(c.Param("id"))
	conn, ok := h.Srv.Peer(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown connection"})
		return
	}

	var p struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	if err := c.ShouldBindJSON(&p); err != nil || p.SDP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid description"})
		return
	}

	answer := webrtc.SessionDescription{
		Type: webrtc.NewSDPType(p.Type),
		SDP:  p.SDP,
	}
	if err := conn.SetAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("channel", string(id)).Msg("set remote description")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not apply description"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) AdditionalCandidates(c *gin.Context) {
	id := domain.ChannelID(c.Param("id"))
	conn, ok := h.Srv.Peer(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown connection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"additionalCandidates": conn.DrainCandidates()})
}

func (h *Handlers) CloseConnection(c *gin.Context) {
	id := domain.ChannelID(c.Param("id"))
	if !h.Srv.CloseConnection(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown connection"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Srv.Manager.Rooms()})
}

func (h *Handlers) JoinRoom(c *gin.Context) {
	id := domain.ChannelID(c.Param("id"))
	var p struct {
		Room string `json:"room"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	room, err := domain.ParseRoomID(p.Room)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.Srv.Manager.JoinRoom(id, room) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handlers) LeaveRoom(c *gin.Context) {
	id := domain.ChannelID(c.Param("id"))
	if !h.Srv.Manager.LeaveRoom(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}
	c.Status(http.StatusOK)
}

// BroadcastRoom lets the host application push a message to a room over REST.
func (h *Handlers) BroadcastRoom(c *gin.Context) {
	room, err := domain.ParseRoomID(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var p struct {
		Data     string `json:"data"`
		Reliable bool   `json:"reliable"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	res := h.Srv.Manager.Broadcast(room, []byte(p.Data), p.Reliable)
	c.JSON(http.StatusOK, gin.H{"sent_to": res.SentTo, "dropped": len(res.Dropped)})
}
