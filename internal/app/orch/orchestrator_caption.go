package orch

import (
	"context"

	"github.com/dkeye/Babel/internal/app/fanout"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
)

// Utter fans a recognized utterance out to the rest of the speaker's room.
// An empty language means the speaker's declared language.
func (o *Orchestrator) Utter(ctx context.Context, sid core.SessionID, text, lang string) (fanout.Report, error) {
	speaker, ok := o.Registry.MemberOf(sid)
	if !ok {
		return fanout.Report{}, ErrNotJoined
	}
	source := speaker.Language
	if lang != "" {
		source = language.NormalizeOr(lang, speaker.Language)
	}
	return o.captions.Broadcast(ctx, domain.Utterance{
		Room:     speaker.Room,
		Source:   speaker.ID,
		Text:     text,
		Language: source,
	}), nil
}
