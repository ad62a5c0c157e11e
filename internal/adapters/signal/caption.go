package signal

import (
	"context"
	"errors"
	"strings"

	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/language"
	"github.com/rs/zerolog/log"
)

// autoLanguage asks for detection of the utterance language.
const autoLanguage = "auto"

func (ctl *SignalWSController) handleUtterance(c *WsSignalConn, data []byte) {
	var p utteranceMsg
	if err := ctl.decode(data, &p); err != nil || strings.TrimSpace(p.Text) == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	m, ok := ctl.Orch.Registry.MemberOf(c.sid)
	if !ok {
		ctl.sendError(c, "not_joined")
		return
	}
	if !ctl.limiter.Allow(m.ID) {
		log.Warn().Str("module", "signal").Str("participant", string(m.ID)).Msg("utterance rate limited")
		ctl.sendError(c, "rate_limited")
		return
	}
	select {
	case c.captions <- p:
	default:
		ctl.sendError(c, "rate_limited")
	}
}

func (ctl *SignalWSController) utter(ctx context.Context, c *WsSignalConn, p utteranceMsg) {
	lang := p.Language
	if strings.EqualFold(lang, autoLanguage) {
		lang = ""
		if code, ok := language.Detect(p.Text); ok {
			lang = string(code)
		}
	}
	report, err := ctl.Orch.Utter(ctx, c.sid, p.Text, lang)
	if errors.Is(err, orch.ErrNotJoined) {
		ctl.sendError(c, "not_joined")
		return
	}
	log.Debug().
		Str("module", "signal").
		Str("sid", string(c.sid)).
		Int("delivered", report.Delivered).
		Int("failed", len(report.Failed)).
		Msg("utterance")
}
