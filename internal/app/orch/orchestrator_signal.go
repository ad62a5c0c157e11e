package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Babel/internal/app/relay"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotJoined = errors.New("session has not joined a room")

// Relay forwards a negotiation message from the session's participant to
// another member of its room. A vanished target is dropped silently.
func (o *Orchestrator) Relay(sid core.SessionID, kind domain.NegotiationKind, to domain.ParticipantID, payload json.RawMessage) error {
	from, ok := o.Registry.MemberOf(sid)
	if !ok {
		return ErrNotJoined
	}
	env := domain.Envelope{Kind: kind, Room: from.Room, From: from.ID, To: to, Payload: payload}
	out, err := relay.Route(o.Registry, env)
	if errors.Is(err, relay.ErrStaleTarget) {
		log.Info().
			Str("module", "app.orch").
			Str("room", string(env.Room)).
			Str("from", string(env.From)).
			Str("to", string(env.To)).
			Str("kind", string(kind)).
			Msg("stale negotiation dropped")
		return nil
	}
	if err != nil {
		return err
	}
	o.deliver(out)
	return nil
}

// Connected records that the session's participant finished negotiating with
// peer. Informational only.
func (o *Orchestrator) Connected(sid core.SessionID, peer domain.ParticipantID) bool {
	m, ok := o.Registry.MemberOf(sid)
	if !ok {
		return false
	}
	if o.Lifecycle.Activate(m.ID) {
		log.Info().Str("module", "app.orch").Str("room", string(m.Room)).Str("participant", string(m.ID)).Str("peer", string(peer)).Msg("first peer connected")
	}
	return true
}
