package core

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is a threadsafe ordered participant set.
// All mutations of one room are serialized on its own mutex. Once the set
// becomes empty the room is closed and refuses further members; the registry
// then replaces it with a fresh one.
type Room struct {
	id        domain.RoomID
	createdAt time.Time

	mu      sync.RWMutex
	order   []domain.ParticipantID
	members map[domain.ParticipantID]Member
	closed  bool
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:        id,
		createdAt: time.Now(),
		members:   make(map[domain.ParticipantID]Member),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// AddResult describes what Add did. Existing excludes the added member.
type AddResult struct {
	Self     Member
	Existing []Member
	Replaced *Member
	Added    bool
}

// Add inserts m or, when m.ID is already present, updates it in place while
// keeping its position. ok is false when the room is already closed.
func (r *Room) Add(m Member) (res AddResult, ok bool) {
	m.Room = r.id
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return AddResult{}, false
	}
	if old, found := r.members[m.ID]; found {
		m.JoinedAt = old.JoinedAt
		r.members[m.ID] = m
		res.Replaced = &old
	} else {
		if m.JoinedAt.IsZero() {
			m.JoinedAt = time.Now()
		}
		r.members[m.ID] = m
		r.order = append(r.order, m.ID)
		res.Added = true
	}
	res.Self = m
	res.Existing = r.othersLocked(m.ID)
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("participant", string(m.ID)).Bool("added", res.Added).Msg("member set")
	return res, true
}

// RemoveResult describes a removal. Remaining is the set after removal.
type RemoveResult struct {
	Member    Member
	Remaining []Member
	Emptied   bool
}

// Remove deletes the member. When session is non-empty the member is only
// removed if it is still bound to that session.
func (r *Room) Remove(id domain.ParticipantID, session SessionID) (RemoveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, found := r.members[id]
	if !found || (session != "" && m.Session != session) {
		return RemoveResult{}, false
	}
	delete(r.members, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	res := RemoveResult{Member: m, Remaining: r.othersLocked("")}
	if len(r.order) == 0 {
		r.closed = true
		res.Emptied = true
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("participant", string(id)).Bool("emptied", res.Emptied).Msg("member removed")
	return res, true
}

func (r *Room) Lookup(id domain.ParticipantID) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	return m, ok
}

// Others returns every member except id, in join order.
func (r *Room) Others(id domain.ParticipantID) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.othersLocked(id)
}

func (r *Room) Members() []Member {
	return r.Others("")
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{ID: r.id, MemberCount: r.Len(), CreatedAt: r.createdAt}
}

func (r *Room) othersLocked(id domain.ParticipantID) []Member {
	out := make([]Member, 0, len(r.order))
	for _, pid := range r.order {
		if pid == id {
			continue
		}
		out = append(out, r.members[pid])
	}
	return out
}
