// Package lifecycle follows each participant through Joined → Active → Left.
package lifecycle

import (
	"sync"
	"time"

	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Joined State = iota
	Active
	Left
)

func (s State) String() string {
	switch s {
	case Joined:
		return "joined"
	case Active:
		return "active"
	case Left:
		return "left"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type entry struct {
	room  domain.RoomID
	state State
	since time.Time
}

// Status is a read-only view of one tracked participant.
type Status struct {
	Participant domain.ParticipantID `json:"participant"`
	Room        domain.RoomID        `json:"room"`
	State       State                `json:"state"`
	Since       time.Time            `json:"since"`
}

// Tracker is informational: the registry stays the source of truth for
// membership, the tracker records how far each membership got.
type Tracker struct {
	mu      sync.Mutex
	entries map[domain.ParticipantID]*entry
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[domain.ParticipantID]*entry), now: time.Now}
}

// Begin records a join. Re-joining the same room keeps the current state.
func (t *Tracker) Begin(id domain.ParticipantID, room domain.RoomID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok && e.room == room {
		return e.state
	}
	t.entries[id] = &entry{room: room, state: Joined, since: t.now()}
	log.Debug().Str("module", "app.lifecycle").Str("participant", string(id)).Str("room", string(room)).Msg("joined")
	return Joined
}

// Activate moves Joined → Active. It reports whether a transition happened.
func (t *Tracker) Activate(id domain.ParticipantID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || e.state != Joined {
		return false
	}
	e.state = Active
	e.since = t.now()
	log.Info().Str("module", "app.lifecycle").Str("participant", string(id)).Str("room", string(e.room)).Msg("active")
	return true
}

// End moves the participant to Left and forgets it. A second End is a no-op.
func (t *Tracker) End(id domain.ParticipantID) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return Status{}, false
	}
	delete(t.entries, id)
	from := e.state
	e.state = Left
	e.since = t.now()
	log.Debug().Str("module", "app.lifecycle").Str("participant", string(id)).Str("room", string(e.room)).Stringer("from", from).Msg("left")
	return Status{Participant: id, Room: e.room, State: Left, Since: e.since}, true
}

func (t *Tracker) State(id domain.ParticipantID) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.state, true
	}
	return Left, false
}

// Snapshot lists the tracked participants of one room.
func (t *Tracker) Snapshot(room domain.RoomID) []Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Status
	for id, e := range t.entries {
		if e.room == room {
			out = append(out, Status{Participant: id, Room: e.room, State: e.state, Since: e.since})
		}
	}
	return out
}
