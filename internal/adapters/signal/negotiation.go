package signal

import (
	"errors"

	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/app/relay"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleNegotiation(c *WsSignalConn, kind string, data []byte) {
	var p negotiationMsg
	if err := ctl.decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.sid)).Str("kind", kind).Msg("bad negotiation payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	err := ctl.Orch.Relay(c.sid, domain.NegotiationKind(kind), domain.ParticipantID(p.To), p.Payload)
	switch {
	case err == nil:
	case errors.Is(err, orch.ErrNotJoined), errors.Is(err, relay.ErrNotInRoom):
		ctl.sendError(c, "not_joined")
	case errors.Is(err, relay.ErrSelfTarget):
		ctl.sendError(c, "bad_target")
	default:
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.sid)).Msg("relay failed")
		ctl.sendError(c, "relay_failed")
	}
}

func (ctl *SignalWSController) handleConnected(c *WsSignalConn, data []byte) {
	var p connectedMsg
	if err := ctl.decode(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if !ctl.Orch.Connected(c.sid, domain.ParticipantID(p.Peer)) {
		ctl.sendError(c, "not_joined")
	}
}
