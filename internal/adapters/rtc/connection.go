package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/core"
	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

var ErrDataChannelNotOpen = errors.New("data channel not open")

// Connection is one server-side peer with a single pre-created unordered,
// zero-retransmit data channel. The server is the offerer; candidates
// gathered after the offer are buffered for trickle pickup over HTTP, or
// pushed directly once a candidate callback is installed (WS signaling).
type Connection struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel
	id domain.ChannelID

	mu      sync.Mutex
	pending []webrtc.ICECandidateInit
	onICE   func(webrtc.ICECandidateInit)

	onFrame  func([]byte)
	onOpen   func()
	onClosed func()
	cancel   context.CancelFunc
}

func DefaultWebRTCConfig(iceURLs []string) webrtc.Configuration {
	if len(iceURLs) == 0 {
		iceURLs = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: iceURLs},
		},
	}
}

func NewConnection(cfg webrtc.Configuration, id domain.ChannelID, label string) (*Connection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	// Unordered with zero retransmits: the channel itself gives no delivery
	// guarantee, the reliable layer above supplies it.
	ordered := false
	var maxRetransmits uint16
	dc, err := pc.CreateDataChannel(label, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	return &Connection{pc: pc, dc: dc, id: id}, nil
}

func (c *Connection) ID() domain.ChannelID { return c.id }

func (c *Connection) Start(ctx context.Context) error {
	_, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("channel", string(c.id)).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateDisconnected ||
			s == webrtc.ICEConnectionStateFailed ||
			s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("channel", string(c.id)).Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			if c.onClosed != nil {
				c.onClosed()
			}
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		ci := cand.ToJSON()
		c.mu.Lock()
		push := c.onICE
		if push == nil {
			c.pending = append(c.pending, ci)
		}
		c.mu.Unlock()
		if push != nil {
			push(ci)
		}
	})

	c.dc.OnOpen(func() {
		log.Info().Str("module", "rtc").Str("channel", string(c.id)).Str("label", c.dc.Label()).Msg("data channel open")
		if c.onOpen != nil {
			c.onOpen()
		}
	})

	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if c.onFrame != nil {
			c.onFrame(msg.Data)
		}
	})

	c.dc.OnClose(func() {
		log.Info().Str("module", "rtc").Str("channel", string(c.id)).Msg("data channel closed")
		if c.onClosed != nil {
			c.onClosed()
		}
	})

	return nil
}

// CreateOffer sets the local description and returns it without waiting for
// gathering; candidates trickle through OnICECandidate.
func (c *Connection) CreateOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	return c.pc.LocalDescription(), nil
}

func (c *Connection) SetAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

// DrainCandidates returns and clears the buffered local candidates.
func (c *Connection) DrainCandidates() []webrtc.ICECandidateInit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// OnICECandidate switches candidate delivery from buffering to push and
// flushes anything already buffered.
func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	buffered := c.pending
	c.pending = nil
	c.onICE = fn
	c.mu.Unlock()
	for _, ci := range buffered {
		fn(ci)
	}
}

func (c *Connection) OnFrame(fn func([]byte)) { c.onFrame = fn }
func (c *Connection) OnOpen(fn func())        { c.onOpen = fn }
func (c *Connection) OnClosed(fn func())      { c.onClosed = fn }

// TrySend implements core.RawConnection. Synchronous: the frame is handed to
// the SCTP stack or the call fails inline.
func (c *Connection) TrySend(f core.Frame) error {
	if c.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrDataChannelNotOpen
	}
	return c.dc.Send(f)
}

func (c *Connection) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pc != nil {
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("channel", string(c.id)).Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Str("channel", string(c.id)).Msg("closed")
		}
	}
}
