package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

// Manager owns every live Channel and is the single entry point for room
// membership changes and room-scoped multicast. Membership mutations are
// serialized behind one lock, so a join and a leave for the same channel can
// never interleave; broadcasts read a consistent membership snapshot.
//
// Construct one Manager per server process and hand it to every call site
// that needs it; there is no package-level instance.
type Manager struct {
	mu           sync.RWMutex
	channels     map[domain.ChannelID]*Channel
	rooms        *RoomIndex
	debugAsserts bool
}

type ManagerOptions struct {
	// DebugAsserts promotes invariant violations from error logs to panics.
	DebugAsserts bool
}

func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		channels:     make(map[domain.ChannelID]*Channel),
		rooms:        NewRoomIndex(),
		debugAsserts: opts.DebugAsserts,
	}
}

func (m *Manager) Register(ch *Channel) {
	m.mu.Lock()
	if m.channels == nil {
		m.channels = make(map[domain.ChannelID]*Channel)
	}
	m.channels[ch.ID()] = ch
	m.mu.Unlock()
	log.Info().Str("module", "core.manager").Str("channel", string(ch.ID())).Msg("channel registered")
}

// Unregister leaves the channel's room, drops it from the registry and closes
// it, so the index never outlives a channel it references.
func (m *Manager) Unregister(id domain.ChannelID) {
	m.mu.Lock()
	ch, ok := m.channels[id]
	if ok {
		if m.rooms != nil {
			m.rooms.Leave(id)
		}
		ch.setRoom("")
		delete(m.channels, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	ch.Close()
	log.Info().Str("module", "core.manager").Str("channel", string(id)).Msg("channel unregistered")
}

func (m *Manager) Channel(id domain.ChannelID) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[id]
	return ch, ok
}

func (m *Manager) ChannelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

// JoinRoom moves the channel into room, updating the channel's room attribute
// and the index together under one critical section. Reports false for an
// unknown channel or an empty room id.
func (m *Manager) JoinRoom(id domain.ChannelID, room domain.RoomID) bool {
	if room == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || m.rooms == nil {
		return false
	}
	m.rooms.Join(id, room)
	ch.setRoom(room)
	log.Info().Str("module", "core.manager").Str("channel", string(id)).Str("room", string(room)).Msg("joined room")
	return true
}

// LeaveRoom detaches the channel from its room, if any. The connection stays
// up.
func (m *Manager) LeaveRoom(id domain.ChannelID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || m.rooms == nil {
		return false
	}
	m.rooms.Leave(id)
	ch.setRoom("")
	log.Info().Str("module", "core.manager").Str("channel", string(id)).Msg("left room")
	return true
}

func (m *Manager) MembersOf(room domain.RoomID) []domain.ChannelID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rooms == nil {
		return nil
	}
	return m.rooms.MembersOf(room)
}

func (m *Manager) Rooms() []domain.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rooms == nil {
		return nil
	}
	return m.rooms.Rooms()
}

// Broadcast sends payload to every current member of room. An empty
// membership set means nobody is there, not that the index failed, and sends
// to nobody. The full-scan path runs only when the Manager was built without
// an index and is always logged as degraded.
func (m *Manager) Broadcast(room domain.RoomID, payload []byte, reliable bool) PublishResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rooms == nil {
		return m.broadcastScan(room, payload, reliable)
	}
	res := PublishResult{}
	for _, id := range m.rooms.MembersOf(room) {
		ch, ok := m.channels[id]
		if !ok {
			// Means Unregister failed to clean up; must never happen.
			log.Error().Str("module", "core.manager").Str("channel", string(id)).Str("room", string(room)).Msg("room index references unregistered channel")
			if m.debugAsserts {
				panic("core: room index references unregistered channel " + string(id))
			}
			continue
		}
		m.sendOne(ch, payload, reliable, &res)
	}
	log.Debug().Str("module", "core.manager").Str("room", string(room)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// broadcastScan visits every registered channel and matches on its room
// attribute. Diagnostic fallback only.
func (m *Manager) broadcastScan(room domain.RoomID, payload []byte, reliable bool) PublishResult {
	log.Warn().Str("module", "core.manager").Str("room", string(room)).Msg("room index unavailable, degraded full-scan broadcast")
	res := PublishResult{}
	if room == "" {
		return res
	}
	for _, ch := range m.channels {
		if ch.Room() != room {
			continue
		}
		m.sendOne(ch, payload, reliable, &res)
	}
	return res
}

func (m *Manager) sendOne(ch *Channel, payload []byte, reliable bool, res *PublishResult) {
	var err error
	if reliable {
		err = ch.SendReliable(payload)
	} else {
		err = ch.Send(payload)
	}
	if err != nil {
		res.Dropped = append(res.Dropped, ch.ID())
		return
	}
	res.SentTo++
}
