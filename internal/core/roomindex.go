package core

import "github.com/Pi-Bouf/geckos.io/internal/domain"

// RoomIndex maps room -> member channel ids, with the reverse map kept in
// lockstep so membership questions in both directions are O(1). It has no
// lock of its own: Manager serializes all mutations and guards reads.
type RoomIndex struct {
	byRoom    map[domain.RoomID]map[domain.ChannelID]struct{}
	byChannel map[domain.ChannelID]domain.RoomID
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		byRoom:    make(map[domain.RoomID]map[domain.ChannelID]struct{}),
		byChannel: make(map[domain.ChannelID]domain.RoomID),
	}
}

// Join moves ch into room, leaving any previous room first; a channel belongs
// to at most one room. Re-joining the current room is a no-op.
func (ix *RoomIndex) Join(ch domain.ChannelID, room domain.RoomID) {
	if cur, ok := ix.byChannel[ch]; ok {
		if cur == room {
			return
		}
		ix.removeFrom(ch, cur)
	}
	set, ok := ix.byRoom[room]
	if !ok {
		set = make(map[domain.ChannelID]struct{})
		ix.byRoom[room] = set
	}
	set[ch] = struct{}{}
	ix.byChannel[ch] = room
}

// Leave removes ch from whatever room holds it. No-op when unjoined.
func (ix *RoomIndex) Leave(ch domain.ChannelID) {
	room, ok := ix.byChannel[ch]
	if !ok {
		return
	}
	delete(ix.byChannel, ch)
	ix.removeFrom(ch, room)
}

// removeFrom drops the room set entirely once empty so dead rooms do not
// accumulate.
func (ix *RoomIndex) removeFrom(ch domain.ChannelID, room domain.RoomID) {
	set, ok := ix.byRoom[room]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(ix.byRoom, room)
	}
}

// MembersOf returns a snapshot of the room's members. An unknown room reads
// as empty, never as an error.
func (ix *RoomIndex) MembersOf(room domain.RoomID) []domain.ChannelID {
	set := ix.byRoom[room]
	out := make([]domain.ChannelID, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// RoomOf reports which room ch currently belongs to.
func (ix *RoomIndex) RoomOf(ch domain.ChannelID) (domain.RoomID, bool) {
	room, ok := ix.byChannel[ch]
	return room, ok
}

func (ix *RoomIndex) Rooms() []domain.RoomInfo {
	out := make([]domain.RoomInfo, 0, len(ix.byRoom))
	for id, set := range ix.byRoom {
		out = append(out, domain.RoomInfo{ID: id, MemberCount: len(set)})
	}
	return out
}
