package relay

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
	"github.com/stretchr/testify/require"
)

type fakeDirectory map[domain.RoomID]map[domain.ParticipantID]core.Member

func (f fakeDirectory) Lookup(room domain.RoomID, id domain.ParticipantID) (core.Member, bool) {
	m, ok := f[room][id]
	return m, ok
}

func m(id, lang string) core.Member {
	return core.Member{ID: domain.ParticipantID(id), Language: language.Code(lang), Room: "r"}
}

func TestAssign_NewcomerInitiatesTowardEveryExisting(t *testing.T) {
	req := require.New(t)

	got := Assign("p", []core.Member{m("a", "en"), m("b", "fr")})

	req.Equal([]Assignment{
		{Initiator: "p", Responder: "a"},
		{Initiator: "p", Responder: "b"},
	}, got)
	for _, a := range got {
		req.NotEqual(domain.ParticipantID("a"), a.Initiator)
		req.NotEqual(domain.ParticipantID("b"), a.Initiator)
	}
}

func TestAssign_EmptyRoom(t *testing.T) {
	req := require.New(t)
	req.Empty(Assign("p", nil))
}

func TestPlan_UserJoinedEvents(t *testing.T) {
	req := require.New(t)
	p := m("p", "ja")

	out := Plan(p, []core.Member{m("a", "en"), m("b", "fr")})

	req.Len(out, 4)
	initiatorEvents := 0
	for _, o := range out {
		evt, ok := o.Event.(domain.UserJoined)
		req.True(ok)
		if evt.IsInitiator {
			initiatorEvents++
			// Only the newcomer is told to initiate
			req.Equal(domain.ParticipantID("p"), o.To.ID)
		} else {
			req.Equal(domain.ParticipantID("p"), evt.ParticipantID)
			req.Equal(language.Code("ja"), evt.Language)
		}
	}
	req.Equal(2, initiatorEvents)

	first := out[0].Event.(domain.UserJoined)
	req.Equal(domain.ParticipantID("a"), first.ParticipantID)
	req.Equal(language.Code("en"), first.Language)
}

func TestRoute(t *testing.T) {
	dir := fakeDirectory{"r": {"a": m("a", "en"), "b": m("b", "en")}}
	payload := json.RawMessage(`{"sdp":"v=0\r\n","type":"offer"}`)

	t.Run("forwards verbatim to the target only", func(t *testing.T) {
		req := require.New(t)
		out, err := Route(dir, domain.Envelope{Kind: domain.KindOffer, Room: "r", From: "a", To: "b", Payload: payload})
		req.NoError(err)
		req.Equal(domain.ParticipantID("b"), out.To.ID)
		evt := out.Event.(domain.Negotiation)
		req.Equal(domain.KindOffer, evt.Kind)
		req.Equal(domain.ParticipantID("a"), evt.From)
		req.Equal(string(payload), string(evt.Payload))
	})

	t.Run("target already left", func(t *testing.T) {
		req := require.New(t)
		_, err := Route(dir, domain.Envelope{Kind: domain.KindCandidate, Room: "r", From: "a", To: "gone"})
		req.ErrorIs(err, ErrStaleTarget)
	})

	t.Run("target in another room", func(t *testing.T) {
		req := require.New(t)
		d := fakeDirectory{"r": {"a": m("a", "en")}, "other": {"b": m("b", "en")}}
		_, err := Route(d, domain.Envelope{Kind: domain.KindAnswer, Room: "r", From: "a", To: "b"})
		req.ErrorIs(err, ErrStaleTarget)
	})

	t.Run("sender not in room", func(t *testing.T) {
		req := require.New(t)
		_, err := Route(dir, domain.Envelope{Kind: domain.KindOffer, Room: "r", From: "x", To: "b"})
		req.ErrorIs(err, ErrNotInRoom)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := require.New(t)
		_, err := Route(dir, domain.Envelope{Kind: "hangup", Room: "r", From: "a", To: "b"})
		req.ErrorIs(err, ErrUnknownKind)
	})

	t.Run("self target", func(t *testing.T) {
		req := require.New(t)
		_, err := Route(dir, domain.Envelope{Kind: domain.KindOffer, Room: "r", From: "a", To: "a"})
		req.ErrorIs(err, ErrSelfTarget)
	})
}
