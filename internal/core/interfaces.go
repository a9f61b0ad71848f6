// Package core implements the delivery-correctness kernel: per-channel
// reliable-message deduplication and room-indexed multicast. It never touches
// transport setup or payload structure; the host wires both in.
package core

import (
	"errors"

	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

// Frame is a raw binary payload.
type Frame []byte

var (
	// ErrTransportUnavailable means the underlying connection is not writable
	// right now. Transient; a higher layer may retry, this one never does.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrChannelClosed is terminal for the channel; no further sends permitted.
	ErrChannelClosed = errors.New("channel closed")
)

// RawConnection is the outbound capability the host provides per connection.
// TrySend is synchronous: it either hands the frame to the transport or fails
// inline. Owned by the adapter; the adapter must Close() it.
type RawConnection interface {
	TrySend(Frame) error
}

// DeliverFunc hands a received payload to the application. Invoked at most
// once per distinct reliable message ID, once per plain frame.
type DeliverFunc func(id domain.ChannelID, payload []byte)

// PublishResult reports broadcast fan-out stats.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ChannelID
}
