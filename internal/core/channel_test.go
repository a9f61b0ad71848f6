package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Pi-Bouf/geckos.io/internal/domain"
	"github.com/Pi-Bouf/geckos.io/internal/protocol"
)

type fakeConn struct {
	frames []Frame
	err    error
}

func (f *fakeConn) TrySend(fr Frame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

type recorder struct {
	payloads [][]byte
}

func (r *recorder) deliver(_ domain.ChannelID, payload []byte) {
	r.payloads = append(r.payloads, payload)
}

func TestChannelSendReliableStampsFreshIDs(t *testing.T) {
	conn := &fakeConn{}
	ch := NewChannel("a", conn, nil, ChannelOptions{})

	require.NoError(t, ch.SendReliable([]byte("one")))
	require.NoError(t, ch.SendReliable([]byte("two")))
	require.Len(t, conn.frames, 2)

	first, err := protocol.Unmarshal(conn.frames[0])
	require.NoError(t, err)
	second, err := protocol.Unmarshal(conn.frames[1])
	require.NoError(t, err)

	require.True(t, first.Reliable)
	require.True(t, second.Reliable)
	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, []byte("one"), first.Data)
	require.Equal(t, []byte("two"), second.Data)
}

func TestChannelSendPlainHasNoID(t *testing.T) {
	conn := &fakeConn{}
	ch := NewChannel("a", conn, nil, ChannelOptions{})

	require.NoError(t, ch.Send([]byte("hi")))

	env, err := protocol.Unmarshal(conn.frames[0])
	require.NoError(t, err)
	require.False(t, env.Reliable)
	require.Empty(t, env.ID)
	require.Equal(t, []byte("hi"), env.Data)
}

func TestChannelSendOnDeadTransport(t *testing.T) {
	conn := &fakeConn{err: errors.New("datachannel not open")}
	ch := NewChannel("a", conn, nil, ChannelOptions{})

	require.ErrorIs(t, ch.SendReliable([]byte("x")), ErrTransportUnavailable)
	require.ErrorIs(t, ch.Send([]byte("x")), ErrTransportUnavailable)
}

func TestChannelSendAfterClose(t *testing.T) {
	conn := &fakeConn{}
	ch := NewChannel("a", conn, nil, ChannelOptions{})
	ch.Close()
	ch.Close() // idempotent

	require.ErrorIs(t, ch.SendReliable([]byte("x")), ErrChannelClosed)
	require.ErrorIs(t, ch.Send([]byte("x")), ErrChannelClosed)
	require.Empty(t, conn.frames)
}

func TestChannelRedeliveredReliableFrameFiresOnce(t *testing.T) {
	rec := &recorder{}
	ch := NewChannel("a", &fakeConn{}, rec.deliver, ChannelOptions{ReliableTTL: 15 * time.Second})
	t0 := time.Unix(1000, 0)

	ch.OnReceive([]byte("hello"), true, "m1", t0)
	ch.OnReceive([]byte("hello"), true, "m1", t0.Add(200*time.Millisecond))

	require.Len(t, rec.payloads, 1)
	require.Equal(t, []byte("hello"), rec.payloads[0])
}

func TestChannelDuplicatePastTTLIsDeliveredAgain(t *testing.T) {
	rec := &recorder{}
	ch := NewChannel("a", &fakeConn{}, rec.deliver, ChannelOptions{ReliableTTL: 15000 * time.Millisecond})
	t0 := time.Unix(1000, 0)

	ch.OnReceive([]byte("hello"), true, "m1", t0)
	ch.OnReceive([]byte("hello"), true, "m1", t0.Add(15001*time.Millisecond))

	// Deliver-twice past the window is accepted boundary behavior.
	require.Len(t, rec.payloads, 2)
}

func TestChannelPlainFramesBypassDedup(t *testing.T) {
	rec := &recorder{}
	ch := NewChannel("a", &fakeConn{}, rec.deliver, ChannelOptions{})
	t0 := time.Unix(1000, 0)

	ch.OnReceive([]byte("tick"), false, "", t0)
	ch.OnReceive([]byte("tick"), false, "", t0)

	require.Len(t, rec.payloads, 2)
}

func TestChannelNoDeliveryAfterClose(t *testing.T) {
	rec := &recorder{}
	ch := NewChannel("a", &fakeConn{}, rec.deliver, ChannelOptions{})
	ch.Close()

	ch.OnReceive([]byte("late"), true, "m1", time.Unix(1000, 0))
	require.Empty(t, rec.payloads)
}
