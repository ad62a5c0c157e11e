package app

import (
	"sync"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

type binding struct {
	Room    domain.RoomID
	Session core.SessionID
}

// Registry owns every room and participant for the process lifetime.
// The registry lock only guards the room table and the participant/session
// index; membership changes are serialized by each room's own lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room

	idxMu         sync.Mutex
	byParticipant map[domain.ParticipantID]binding
	bySession     map[core.SessionID]domain.ParticipantID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:         make(map[domain.RoomID]*core.Room),
		byParticipant: make(map[domain.ParticipantID]binding),
		bySession:     make(map[core.SessionID]domain.ParticipantID),
	}
}

// Departure describes a participant that was removed from a room.
type Departure struct {
	Room        domain.RoomID
	Member      core.Member
	Remaining   []core.Member
	RoomDeleted bool
}

type JoinResult struct {
	Self     core.Member
	Existing []core.Member
	Created  bool
	// Rejoined is set when the participant was already in this room.
	Rejoined bool
	// Previous is set when the join moved the participant out of another room.
	Previous *Departure
}

// Join adds m to m.Room, creating the room when absent. A repeated join of the
// same identity updates language and session in place.
func (r *Registry) Join(m core.Member) JoinResult {
	var (
		res     core.AddResult
		created bool
	)
	for {
		var room *core.Room
		room, created = r.getOrCreate(m.Room)
		var ok bool
		if res, ok = room.Add(m); ok {
			break
		}
		// Lost a race with the last leave of this room; its replacement
		// is created on the next attempt.
		r.dropRoom(room)
	}

	out := JoinResult{Self: res.Self, Existing: res.Existing, Created: created, Rejoined: !res.Added}

	r.idxMu.Lock()
	prev, had := r.byParticipant[m.ID]
	r.byParticipant[m.ID] = binding{Room: m.Room, Session: m.Session}
	if had && prev.Session != m.Session && r.bySession[prev.Session] == m.ID {
		delete(r.bySession, prev.Session)
	}
	r.bySession[m.Session] = m.ID
	r.idxMu.Unlock()

	if had && prev.Room != m.Room {
		if dep, ok := r.removeFromRoom(prev.Room, m.ID, ""); ok {
			out.Previous = &dep
		}
	}

	log.Info().
		Str("module", "app.registry").
		Str("room", string(m.Room)).
		Str("participant", string(m.ID)).
		Str("sid", string(m.Session)).
		Bool("created", created).
		Bool("rejoined", out.Rejoined).
		Msg("joined")
	return out
}

// Leave removes the participant from the room. Absent room or participant is
// a no-op.
func (r *Registry) Leave(roomID domain.RoomID, id domain.ParticipantID) (Departure, bool) {
	dep, ok := r.removeFromRoom(roomID, id, "")
	if !ok {
		return Departure{}, false
	}
	r.unindex(id, roomID, dep.Member.Session)
	log.Info().Str("module", "app.registry").Str("room", string(roomID)).Str("participant", string(id)).Msg("left")
	return dep, true
}

// RemoveBySession removes the participant bound to the transport session, if
// any. A participant that rejoined on a newer session is left alone.
func (r *Registry) RemoveBySession(sid core.SessionID) (Departure, bool) {
	r.idxMu.Lock()
	id, ok := r.bySession[sid]
	b := r.byParticipant[id]
	r.idxMu.Unlock()
	if !ok || b.Session != sid {
		return Departure{}, false
	}

	dep, ok := r.removeFromRoom(b.Room, id, sid)
	if !ok {
		return Departure{}, false
	}
	r.unindex(id, b.Room, sid)
	log.Info().Str("module", "app.registry").Str("room", string(b.Room)).Str("participant", string(id)).Str("sid", string(sid)).Msg("removed by session")
	return dep, true
}

// ListOthers returns every member of the room except id, in join order.
func (r *Registry) ListOthers(roomID domain.RoomID, id domain.ParticipantID) []core.Member {
	room, ok := r.room(roomID)
	if !ok {
		return nil
	}
	return room.Others(id)
}

func (r *Registry) Members(roomID domain.RoomID) []core.Member {
	room, ok := r.room(roomID)
	if !ok {
		return nil
	}
	return room.Members()
}

func (r *Registry) Lookup(roomID domain.RoomID, id domain.ParticipantID) (core.Member, bool) {
	return r.lookup(roomID, id)
}

// MemberOf resolves the participant currently bound to a transport session.
func (r *Registry) MemberOf(sid core.SessionID) (core.Member, bool) {
	r.idxMu.Lock()
	id, ok := r.bySession[sid]
	b := r.byParticipant[id]
	r.idxMu.Unlock()
	if !ok || b.Session != sid {
		return core.Member{}, false
	}
	m, ok := r.lookup(b.Room, id)
	if !ok || m.Session != sid {
		return core.Member{}, false
	}
	return m, true
}

func (r *Registry) RoomOf(id domain.ParticipantID) (domain.RoomID, bool) {
	r.idxMu.Lock()
	defer r.idxMu.Unlock()
	b, ok := r.byParticipant[id]
	return b.Room, ok
}

func (r *Registry) HasRoom(roomID domain.RoomID) bool {
	_, ok := r.room(roomID)
	return ok
}

func (r *Registry) List() []core.RoomInfo {
	r.mu.RLock()
	rooms := make([]*core.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		if info := room.Info(); info.MemberCount > 0 {
			out = append(out, info)
		}
	}
	return out
}

// Len is the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) getOrCreate(id domain.RoomID) (*core.Room, bool) {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok && !room.Closed() {
		return room, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[id]; ok && !room.Closed() {
		return room, false
	}
	room = core.NewRoom(id)
	r.rooms[id] = room
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	return room, true
}

func (r *Registry) room(id domain.RoomID) (*core.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) lookup(roomID domain.RoomID, id domain.ParticipantID) (core.Member, bool) {
	room, ok := r.room(roomID)
	if !ok {
		return core.Member{}, false
	}
	return room.Lookup(id)
}

// dropRoom deletes the table entry only if it still points at room.
func (r *Registry) dropRoom(room *core.Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rooms[room.ID()]; ok && cur == room {
		delete(r.rooms, room.ID())
		return true
	}
	return false
}

func (r *Registry) removeFromRoom(roomID domain.RoomID, id domain.ParticipantID, sid core.SessionID) (Departure, bool) {
	room, ok := r.room(roomID)
	if !ok {
		return Departure{}, false
	}
	res, ok := room.Remove(id, sid)
	if !ok {
		return Departure{}, false
	}
	dep := Departure{Room: roomID, Member: res.Member, Remaining: res.Remaining}
	if res.Emptied && r.dropRoom(room) {
		dep.RoomDeleted = true
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Msg("room deleted")
	}
	return dep, true
}

func (r *Registry) unindex(id domain.ParticipantID, roomID domain.RoomID, sid core.SessionID) {
	r.idxMu.Lock()
	defer r.idxMu.Unlock()
	if b, ok := r.byParticipant[id]; ok && b.Room == roomID && b.Session == sid {
		delete(r.byParticipant, id)
	}
	if r.bySession[sid] == id {
		delete(r.bySession, sid)
	}
}
