package signal

import (
	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(c *WsSignalConn, data []byte) {
	var p joinMsg
	if err := ctl.decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.sid)).Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	roomID := domain.NewRoomID()
	if p.RoomID != "" {
		id, err := domain.ParseRoomID(p.RoomID)
		if err != nil {
			ctl.sendError(c, "bad_room")
			return
		}
		roomID = id
	}

	raw := p.ParticipantID
	if raw == "" {
		raw = c.token
	}
	pid, err := domain.ParseParticipantID(raw)
	if err != nil {
		ctl.sendError(c, "bad_participant")
		return
	}

	out := ctl.Orch.Join(orch.JoinRequest{
		Room:        roomID,
		Participant: pid,
		Language:    p.Language,
		Session:     c.sid,
		Sink:        c,
	})
	log.Info().
		Str("module", "signal").
		Str("sid", string(c.sid)).
		Str("room", string(roomID)).
		Str("participant", string(pid)).
		Bool("created", out.Created).
		Bool("rejoined", out.Rejoined).
		Msg("join")
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(c *WsSignalConn) {
	if m, ok := ctl.Orch.Registry.MemberOf(c.sid); ok {
		ctl.limiter.Forget(m.ID)
	}
	left := ctl.Orch.Leave(c.sid)
	log.Info().Str("module", "signal").Str("sid", string(c.sid)).Bool("was_member", left).Msg("leave")
	ctl.sendJSON(c, typeFrame{Type: "left"})
}
