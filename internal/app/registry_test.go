package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMember(room, id, lang string) core.Member {
	return core.Member{
		ID:       domain.ParticipantID(id),
		Room:     domain.RoomID(room),
		Language: language.Code(lang),
		Session:  core.SessionID("sid-" + id),
	}
}

func memberIDs(members []core.Member) []domain.ParticipantID {
	out := make([]domain.ParticipantID, 0, len(members))
	for _, m := range members {
		out = append(out, m.ID)
	}
	return out
}

func TestRegistry_Join_CreatesRoomAndReturnsExisting(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	// Given no room exists
	req.Equal(0, reg.Len())

	// When three participants join the same room
	first := reg.Join(newMember("r", "a", "en"))
	reg.Join(newMember("r", "b", "fr"))
	third := reg.Join(newMember("r", "c", "es"))

	// Then the first join created the room
	req.True(first.Created)
	req.Empty(first.Existing)
	req.False(third.Created)

	// And the newcomer sees the others in join order
	req.Equal([]domain.ParticipantID{"a", "b"}, memberIDs(third.Existing))
	req.Equal(domain.ParticipantID("c"), third.Self.ID)
	req.Equal(1, reg.Len())
}

func TestRegistry_Join_DuplicateIsAnUpdate(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Join(newMember("r", "a", "en"))
	reg.Join(newMember("r", "b", "en"))

	res := reg.Join(newMember("r", "a", "ja"))

	req.True(res.Rejoined)
	req.Nil(res.Previous)
	req.Len(reg.Members("r"), 2)
	m, ok := reg.Lookup("r", "a")
	req.True(ok)
	req.Equal(language.Code("ja"), m.Language)
}

func TestRegistry_Join_NewSessionReplacesOldBinding(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Join(newMember("r", "a", "en"))

	again := newMember("r", "a", "en")
	again.Session = "sid-a-reloaded"
	reg.Join(again)

	// The old transport session no longer owns the participant
	_, ok := reg.RemoveBySession("sid-a")
	req.False(ok)
	req.Len(reg.Members("r"), 1)

	m, ok := reg.MemberOf("sid-a-reloaded")
	req.True(ok)
	req.Equal(domain.ParticipantID("a"), m.ID)
}

func TestRegistry_Join_OtherRoomMovesParticipant(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Join(newMember("r1", "a", "en"))
	reg.Join(newMember("r1", "b", "en"))

	res := reg.Join(newMember("r2", "a", "en"))

	req.NotNil(res.Previous)
	req.Equal(domain.RoomID("r1"), res.Previous.Room)
	req.Equal([]domain.ParticipantID{"b"}, memberIDs(res.Previous.Remaining))
	req.Equal([]domain.ParticipantID{"b"}, memberIDs(reg.Members("r1")))
	req.Equal([]domain.ParticipantID{"a"}, memberIDs(reg.Members("r2")))

	room, ok := reg.RoomOf("a")
	req.True(ok)
	req.Equal(domain.RoomID("r2"), room)
}

func TestRegistry_Leave_LastMemberDeletesRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Join(newMember("r", "a", "en"))
	reg.Join(newMember("r", "b", "en"))

	dep, ok := reg.Leave("r", "a")
	req.True(ok)
	req.False(dep.RoomDeleted)
	req.Equal([]domain.ParticipantID{"b"}, memberIDs(dep.Remaining))

	dep, ok = reg.Leave("r", "b")
	req.True(ok)
	req.True(dep.RoomDeleted)
	req.Empty(dep.Remaining)
	req.False(reg.HasRoom("r"))
	req.Empty(reg.List())

	// A later join with the same id starts a fresh room
	res := reg.Join(newMember("r", "c", "en"))
	req.True(res.Created)
	req.Empty(res.Existing)
}

func TestRegistry_Leave_OrphanIsNoop(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	_, ok := reg.Leave("nowhere", "ghost")
	req.False(ok)

	reg.Join(newMember("r", "a", "en"))
	_, ok = reg.Leave("r", "ghost")
	req.False(ok)

	_, ok = reg.Leave("r", "a")
	req.True(ok)
	_, ok = reg.Leave("r", "a")
	req.False(ok)
}

func TestRegistry_RemoveBySession(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Join(newMember("r", "a", "en"))
	reg.Join(newMember("r", "b", "en"))

	dep, ok := reg.RemoveBySession("sid-a")
	req.True(ok)
	req.Equal(domain.ParticipantID("a"), dep.Member.ID)
	req.Equal(domain.RoomID("r"), dep.Room)
	req.Equal([]domain.ParticipantID{"b"}, memberIDs(dep.Remaining))

	// Unknown and already-removed sessions are no-ops
	_, ok = reg.RemoveBySession("sid-a")
	req.False(ok)
	_, ok = reg.RemoveBySession("unknown")
	req.False(ok)

	// Leave after disconnect is a no-op as well
	_, ok = reg.Leave("r", "a")
	req.False(ok)
}

func TestRegistry_ListOthers(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	req.Nil(reg.ListOthers("r", "a"))

	reg.Join(newMember("r", "a", "en"))
	reg.Join(newMember("r", "b", "de"))
	reg.Join(newMember("r", "c", "de"))

	req.Equal([]domain.ParticipantID{"b", "c"}, memberIDs(reg.ListOthers("r", "a")))
	req.Equal([]domain.ParticipantID{"a", "c"}, memberIDs(reg.ListOthers("r", "b")))
}

func TestRegistry_ConcurrentJoinLeave_KeepsSizesExact(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	const rooms, perRoom = 8, 50

	var wg sync.WaitGroup
	for r := 0; r < rooms; r++ {
		for p := 0; p < perRoom; p++ {
			wg.Add(1)
			go func(r, p int) {
				defer wg.Done()
				room := fmt.Sprintf("room-%d", r)
				id := uuid.NewString()
				m := newMember(room, id, "en")
				reg.Join(m)
				reg.Join(m)
				// Odd participants leave again, alternating the two cleanup paths
				if p%2 == 1 {
					if p%4 == 1 {
						reg.Leave(m.Room, m.ID)
					} else {
						reg.RemoveBySession(m.Session)
					}
				}
			}(r, p)
		}
	}
	wg.Wait()

	req.Equal(rooms, reg.Len())
	for r := 0; r < rooms; r++ {
		members := reg.Members(domain.RoomID(fmt.Sprintf("room-%d", r)))
		req.Len(members, perRoom/2)
		seen := make(map[domain.ParticipantID]struct{})
		for _, m := range members {
			_, dup := seen[m.ID]
			req.False(dup)
			seen[m.ID] = struct{}{}
		}
	}
}

func TestRegistry_ConcurrentChurn_NeverResurrectsClosedRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newMember("hot", fmt.Sprintf("p-%d", i), "en")
			reg.Join(m)
			reg.Leave(m.Room, m.ID)
		}(i)
	}
	wg.Wait()

	req.False(reg.HasRoom("hot"))
	req.Equal(0, reg.Len())

	// And the room is usable again afterwards
	res := reg.Join(newMember("hot", "late", "en"))
	req.Empty(res.Existing)
	req.Len(reg.Members("hot"), 1)
}
