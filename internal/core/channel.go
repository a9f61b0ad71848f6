package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/domain"
	"github.com/Pi-Bouf/geckos.io/internal/protocol"
)

// DefaultReliableTTL bounds how long a reliable-message ID is remembered.
// Past it a redelivered frame is accepted again; the transport is not
// expected to redeliver that late.
const DefaultReliableTTL = 15 * time.Second

type ChannelOptions struct {
	ReliableTTL time.Duration
	SweepEvery  int
}

// Channel is one reliable-delivery endpoint wrapping a single transport
// connection. It stamps outbound reliable frames with fresh IDs and dedups
// inbound ones. Room membership is mutated only through Manager.
type Channel struct {
	id      domain.ChannelID
	conn    RawConnection
	deliver DeliverFunc
	ttl     time.Duration

	mu     sync.Mutex
	room   domain.RoomID
	seq    uint64
	seen   *dedupSet
	closed bool
}

func NewChannel(id domain.ChannelID, conn RawConnection, deliver DeliverFunc, opts ChannelOptions) *Channel {
	ttl := opts.ReliableTTL
	if ttl <= 0 {
		ttl = DefaultReliableTTL
	}
	return &Channel{
		id:      id,
		conn:    conn,
		deliver: deliver,
		ttl:     ttl,
		seen:    newDedupSet(opts.SweepEvery),
	}
}

func (c *Channel) ID() domain.ChannelID { return c.id }

// Room returns the channel's current room, or "" when unjoined.
func (c *Channel) Room() domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// setRoom is called by Manager only, together with the room index update.
func (c *Channel) setRoom(room domain.RoomID) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// Send writes a plain frame: no ID, no delivery guarantee beyond the
// transport's own.
func (c *Channel) Send(payload []byte) error {
	if c.isClosed() {
		return ErrChannelClosed
	}
	raw, err := protocol.Marshal(protocol.Envelope{Data: payload})
	if err != nil {
		return err
	}
	return c.trySend(raw)
}

// SendReliable stamps the payload with a fresh message ID and writes it. The
// transport call stays synchronous; it succeeds or fails right here, there is
// no buffering or retry at this layer.
func (c *Channel) SendReliable(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	id := uuid.NewString()
	raw, err := protocol.Marshal(protocol.Envelope{ID: id, Reliable: true, Data: payload})
	if err != nil {
		return err
	}
	if err := c.trySend(raw); err != nil {
		return err
	}
	log.Debug().Str("module", "core.channel").Str("channel", string(c.id)).Str("msg_id", id).Uint64("seq", seq).Msg("reliable sent")
	return nil
}

// OnReceive processes one inbound frame. Plain frames go straight to the
// application; reliable frames are delivered only when their ID is novel
// within the dedup window. Duplicates are absorbed silently.
func (c *Channel) OnReceive(payload []byte, reliable bool, msgID string, now time.Time) {
	if !reliable {
		if c.deliver != nil {
			c.deliver(c.id, payload)
		}
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	novel := c.seen.Observe(msgID, now, c.ttl)
	c.mu.Unlock()
	if !novel {
		log.Debug().Str("module", "core.channel").Str("channel", string(c.id)).Str("msg_id", msgID).Msg("duplicate dropped")
		return
	}
	if c.deliver != nil {
		c.deliver(c.id, payload)
	}
}

// Close discards dedup state and marks the channel non-writable. Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seen = newDedupSet(0)
	sent := c.seq
	c.mu.Unlock()
	log.Info().Str("module", "core.channel").Str("channel", string(c.id)).Uint64("reliable_sent", sent).Msg("channel closed")
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) trySend(raw []byte) error {
	if err := c.conn.TrySend(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	return nil
}
