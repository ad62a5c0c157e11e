// Package fanout delivers one utterance to every other room member in their
// own language, translating once per distinct language.
package fanout

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

const DefaultMaxParallel = 4

// Roster lists the listeners of an utterance and re-resolves them once a
// translation is ready. Implemented by app.Registry.
type Roster interface {
	ListOthers(room domain.RoomID, id domain.ParticipantID) []core.Member
	Lookup(room domain.RoomID, id domain.ParticipantID) (core.Member, bool)
}

// Translator is implemented by translate.Gateway.
type Translator interface {
	Translate(ctx context.Context, text string, source, target language.Code) (string, error)
}

// Dispatcher pushes ready events to their sinks.
type Dispatcher interface {
	Dispatch(out []core.Outbound)
}

type Broadcaster struct {
	roster      Roster
	translator  Translator
	dispatcher  Dispatcher
	maxParallel int
}

func NewBroadcaster(roster Roster, translator Translator, dispatcher Dispatcher, maxParallel int) *Broadcaster {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Broadcaster{roster: roster, translator: translator, dispatcher: dispatcher, maxParallel: maxParallel}
}

// Report summarizes one fan-out.
type Report struct {
	Listeners int
	Languages int
	Delivered int
	Failed    []language.Code
}

// Broadcast translates u once per distinct listener language and dispatches
// each language group as soon as its translation is ready. A failed group is
// skipped; the others are unaffected and nothing is reported to the speaker.
func (b *Broadcaster) Broadcast(ctx context.Context, u domain.Utterance) Report {
	if strings.TrimSpace(u.Text) == "" {
		return Report{}
	}
	// Snapshot first: no room lock is held while translations are in flight.
	others := b.roster.ListOthers(u.Room, u.Source)
	if len(others) == 0 {
		return Report{}
	}

	groups := lo.GroupBy(others, func(m core.Member) language.Code { return m.Language })
	targets := lo.Keys(groups)
	slices.Sort(targets)

	var (
		mu     sync.Mutex
		report = Report{Listeners: len(others), Languages: len(targets)}
	)
	p := pool.New().WithMaxGoroutines(min(len(targets), b.maxParallel))
	for _, target := range targets {
		listeners := groups[target]
		p.Go(func() {
			text, err := b.translator.Translate(ctx, u.Text, u.Language, target)
			if err != nil {
				log.Warn().
					Err(err).
					Str("module", "app.fanout").
					Str("room", string(u.Room)).
					Str("source", string(u.Source)).
					Str("target", string(target)).
					Int("listeners", len(listeners)).
					Msg("language group skipped")
				mu.Lock()
				report.Failed = append(report.Failed, target)
				mu.Unlock()
				return
			}
			out := lo.FilterMap(listeners, func(m core.Member, _ int) (core.Outbound, bool) {
				cur, ok := b.current(u.Room, m.ID, target)
				return core.Outbound{To: cur, Event: domain.NewTranslation(u, cur.ID, target, text)}, ok
			})
			if dropped := len(listeners) - len(out); dropped > 0 {
				log.Debug().
					Str("module", "app.fanout").
					Str("room", string(u.Room)).
					Str("target", string(target)).
					Int("dropped", dropped).
					Msg("listeners gone before delivery")
			}
			b.dispatcher.Dispatch(out)
			mu.Lock()
			report.Delivered += len(out)
			mu.Unlock()
		})
	}
	p.Wait()

	slices.Sort(report.Failed)
	log.Debug().
		Str("module", "app.fanout").
		Str("room", string(u.Room)).
		Str("source", string(u.Source)).
		Int("listeners", report.Listeners).
		Int("languages", report.Languages).
		Int("delivered", report.Delivered).
		Int("failed", len(report.Failed)).
		Msg("broadcast result")
	return report
}

// current returns the live record of a listener, provided it is still in the
// room and still expects target.
func (b *Broadcaster) current(room domain.RoomID, id domain.ParticipantID, target language.Code) (core.Member, bool) {
	m, ok := b.roster.Lookup(room, id)
	if !ok || m.Language != target {
		return core.Member{}, false
	}
	return m, true
}
