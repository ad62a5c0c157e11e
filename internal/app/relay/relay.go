// Package relay arranges who proposes each peer connection and forwards
// negotiation envelopes between two members of the same room.
package relay

import (
	"errors"
	"fmt"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

var (
	ErrStaleTarget = errors.New("negotiation target not in room")
	ErrNotInRoom   = errors.New("negotiation sender not in room")
	ErrUnknownKind = errors.New("unknown negotiation kind")
	ErrSelfTarget  = errors.New("negotiation addressed to sender")
)

// Directory resolves members by identity. Implemented by app.Registry.
type Directory interface {
	Lookup(room domain.RoomID, id domain.ParticipantID) (core.Member, bool)
}

// Assignment designates the side of a pair that sends the first offer.
type Assignment struct {
	Initiator domain.ParticipantID
	Responder domain.ParticipantID
}

// Assign makes the newcomer the initiator toward every existing member.
// Existing members never initiate toward the newcomer, so a pair can not end
// up with two simultaneous offers.
func Assign(newcomer domain.ParticipantID, existing []core.Member) []Assignment {
	out := make([]Assignment, 0, len(existing))
	for _, e := range existing {
		if e.ID == newcomer {
			continue
		}
		out = append(out, Assignment{Initiator: newcomer, Responder: e.ID})
	}
	return out
}

// Plan turns the assignments of a join into user-joined events: the newcomer
// learns every peer it must call, every peer learns who is about to call it.
func Plan(newcomer core.Member, existing []core.Member) []core.Outbound {
	byID := make(map[domain.ParticipantID]core.Member, len(existing))
	for _, e := range existing {
		byID[e.ID] = e
	}
	assignments := Assign(newcomer.ID, existing)
	out := make([]core.Outbound, 0, 2*len(assignments))
	for _, a := range assignments {
		peer := byID[a.Responder]
		out = append(out,
			core.Outbound{To: newcomer, Event: domain.NewUserJoined(peer.ID, peer.Language, true)},
			core.Outbound{To: peer, Event: domain.NewUserJoined(newcomer.ID, newcomer.Language, false)},
		)
	}
	return out
}

// Route resolves the target of env. The payload is passed through untouched.
func Route(dir Directory, env domain.Envelope) (core.Outbound, error) {
	if !env.Kind.Valid() {
		return core.Outbound{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if env.From == env.To {
		return core.Outbound{}, ErrSelfTarget
	}
	if _, ok := dir.Lookup(env.Room, env.From); !ok {
		return core.Outbound{}, fmt.Errorf("%w: %s", ErrNotInRoom, env.From)
	}
	target, ok := dir.Lookup(env.Room, env.To)
	if !ok {
		return core.Outbound{}, fmt.Errorf("%w: %s", ErrStaleTarget, env.To)
	}
	return core.Outbound{To: target, Event: domain.NewNegotiation(env)}, nil
}
