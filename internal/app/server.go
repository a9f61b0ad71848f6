// Package app wires transport connections to the reliable-messaging core.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/adapters/rtc"
	"github.com/Pi-Bouf/geckos.io/internal/config"
	"github.com/Pi-Bouf/geckos.io/internal/core"
	"github.com/Pi-Bouf/geckos.io/internal/domain"
	"github.com/Pi-Bouf/geckos.io/internal/protocol"
)

// Server owns the signaling-stage peer registry and the core Manager. A peer
// appears here at offer time; its channel registers with the Manager only
// once the data channel actually opens.
type Server struct {
	cfg     *config.Config
	Manager *core.Manager

	mu    sync.RWMutex
	peers map[domain.ChannelID]*rtc.Connection
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:     cfg,
		Manager: core.NewManager(core.ManagerOptions{DebugAsserts: cfg.DebugAsserts}),
		peers:   make(map[domain.ChannelID]*rtc.Connection),
	}
}

type ConnectionOffer struct {
	ID               domain.ChannelID           `json:"id"`
	LocalDescription *webrtc.SessionDescription `json:"localDescription"`
}

// CreateConnection spins up a peer, wires its lifecycle into the Manager and
// returns the server-side offer. room, when non-empty, is joined as soon as
// the data channel opens.
func (s *Server) CreateConnection(ctx context.Context, room domain.RoomID) (*ConnectionOffer, error) {
	id := domain.NewChannelID()
	conn, err := rtc.NewConnection(rtc.DefaultWebRTCConfig(s.cfg.ICEURLs), id, s.cfg.Label)
	if err != nil {
		return nil, err
	}

	ch := core.NewChannel(id, conn, s.deliver, core.ChannelOptions{
		ReliableTTL: s.cfg.ReliableTTL,
		SweepEvery:  s.cfg.SweepEvery,
	})

	conn.OnOpen(func() {
		s.Manager.Register(ch)
		if room != "" {
			s.Manager.JoinRoom(id, room)
		}
	})
	conn.OnFrame(func(raw []byte) {
		env, err := protocol.Unmarshal(raw)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.server").Str("channel", string(id)).Msg("bad envelope dropped")
			return
		}
		ch.OnReceive(env.Data, env.Reliable, env.ID, time.Now())
	})
	conn.OnClosed(func() {
		s.dropPeer(id)
	})

	if err := conn.Start(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	offer, err := conn.CreateOffer()
	if err != nil {
		conn.Close()
		return nil, err
	}

	s.mu.Lock()
	s.peers[id] = conn
	s.mu.Unlock()
	log.Info().Str("module", "app.server").Str("channel", string(id)).Str("room", string(room)).Msg("connection offered")

	return &ConnectionOffer{ID: id, LocalDescription: offer}, nil
}

func (s *Server) Peer(id domain.ChannelID) (*rtc.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.peers[id]
	return conn, ok
}

// CloseConnection tears the peer down; unregistration follows through the
// peer's closed callback.
func (s *Server) CloseConnection(id domain.ChannelID) bool {
	s.mu.RLock()
	conn, ok := s.peers[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	conn.Close()
	s.dropPeer(id)
	return true
}

func (s *Server) dropPeer(id domain.ChannelID) {
	s.mu.Lock()
	_, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.Manager.Unregister(id)
	log.Info().Str("module", "app.server").Str("channel", string(id)).Msg("peer dropped")
}

// deliver relays every application-visible frame back out to the sender's
// current room. Unjoined channels get no fan-out. Duplicate reliable frames
// never reach this point; the channel has already absorbed them.
func (s *Server) deliver(id domain.ChannelID, payload []byte) {
	ch, ok := s.Manager.Channel(id)
	if !ok {
		return
	}
	room := ch.Room()
	if room == "" {
		return
	}
	s.Manager.Broadcast(room, payload, false)
}
