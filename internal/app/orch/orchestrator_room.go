package orch

import (
	"time"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/app/relay"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type JoinRequest struct {
	Room        domain.RoomID
	Participant domain.ParticipantID
	Language    string
	Session     core.SessionID
	Sink        core.EventSink
}

type JoinOutcome struct {
	Self     core.Member
	Existing []core.Member
	Created  bool
	Rejoined bool
}

// Join registers the participant, notifies the room it left (if it moved),
// and hands out initiator roles for every new pair.
func (o *Orchestrator) Join(req JoinRequest) JoinOutcome {
	res := o.Registry.Join(core.Member{
		ID:       req.Participant,
		Room:     req.Room,
		Language: language.NormalizeOr(req.Language, o.DefaultLanguage),
		Session:  req.Session,
		Sink:     req.Sink,
		JoinedAt: time.Now(),
	})
	if res.Previous != nil {
		o.depart(*res.Previous, "moved")
	}
	o.Lifecycle.Begin(res.Self.ID, res.Self.Room)

	peers := lo.Map(res.Existing, func(m core.Member, _ int) domain.Peer {
		return domain.Peer{ParticipantID: m.ID, Language: m.Language}
	})
	welcome := core.Outbound{To: res.Self, Event: domain.NewJoined(res.Self.Room, res.Self.ID, res.Self.Language, peers)}
	o.Dispatch(append([]core.Outbound{welcome}, relay.Plan(res.Self, res.Existing)...))

	log.Info().
		Str("module", "app.orch").
		Str("room", string(req.Room)).
		Str("participant", string(req.Participant)).
		Str("language", string(res.Self.Language)).
		Int("peers", len(res.Existing)).
		Msg("join handled")
	return JoinOutcome{Self: res.Self, Existing: res.Existing, Created: res.Created, Rejoined: res.Rejoined}
}

// Leave is an explicit leave from whatever room the session is in. Only the
// membership owned by sid is removed; a rejoin on a newer session survives.
func (o *Orchestrator) Leave(sid core.SessionID) bool {
	dep, ok := o.Registry.RemoveBySession(sid)
	if !ok {
		return false
	}
	o.depart(dep, "leave")
	return true
}

// LeaveRoom removes one participant from one room. Unknown pairs are no-ops.
func (o *Orchestrator) LeaveRoom(room domain.RoomID, id domain.ParticipantID) bool {
	dep, ok := o.Registry.Leave(room, id)
	if !ok {
		return false
	}
	o.depart(dep, "leave")
	return true
}

// Disconnect runs the leave cleanup for a vanished transport session.
// Sessions that own no participant are ignored.
func (o *Orchestrator) Disconnect(sid core.SessionID) bool {
	dep, ok := o.Registry.RemoveBySession(sid)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Msg("disconnect without membership")
		return false
	}
	o.depart(dep, "disconnect")
	return true
}

// depart is the single cleanup path shared by leave, disconnect and moves.
func (o *Orchestrator) depart(dep app.Departure, reason string) {
	o.Lifecycle.End(dep.Member.ID)
	evt := domain.NewUserLeft(dep.Member.ID)
	out := make([]core.Outbound, 0, len(dep.Remaining))
	for _, m := range dep.Remaining {
		out = append(out, core.Outbound{To: m, Event: evt})
	}
	o.Dispatch(out)
	log.Info().
		Str("module", "app.orch").
		Str("room", string(dep.Room)).
		Str("participant", string(dep.Member.ID)).
		Str("reason", reason).
		Int("remaining", len(dep.Remaining)).
		Bool("room_deleted", dep.RoomDeleted).
		Msg("participant departed")
}
