package orch

import (
	"context"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/app/fanout"
	"github.com/dkeye/Babel/internal/app/lifecycle"
	"github.com/dkeye/Babel/internal/app/translate"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/language"
	"github.com/rs/zerolog/log"
)

// Orchestrator turns inbound events into registry mutations and outbound
// events. It holds no room state of its own.
type Orchestrator struct {
	Registry  *app.Registry
	Lifecycle *lifecycle.Tracker
	Gateway   *translate.Gateway
	Policy    app.Policy
	// DefaultLanguage replaces unsupported join languages. Zero means English.
	DefaultLanguage language.Code

	captions *fanout.Broadcaster
}

func New(reg *app.Registry, tracker *lifecycle.Tracker, gw *translate.Gateway, policy app.Policy, maxParallel int) *Orchestrator {
	o := &Orchestrator{
		Registry:  reg,
		Lifecycle: tracker,
		Gateway:   gw,
		Policy:    policy,
	}
	o.captions = fanout.NewBroadcaster(reg, gw, o, maxParallel)
	return o
}

// Dispatch sends every outbound event and applies the backpressure policy to
// sinks that refuse one.
func (o *Orchestrator) Dispatch(out []core.Outbound) {
	for _, ob := range out {
		o.deliver(ob)
	}
}

func (o *Orchestrator) deliver(ob core.Outbound) {
	if ob.To.Sink == nil {
		return
	}
	err := ob.To.Sink.Send(ob.Event)
	if err == nil {
		return
	}
	logger := log.With().
		Str("module", "app.orch").
		Str("room", string(ob.To.Room)).
		Str("participant", string(ob.To.ID)).
		Str("event", string(ob.Event.EventType())).
		Logger()
	if o.Policy == nil {
		logger.Warn().Err(err).Msg("event dropped")
		return
	}
	switch o.Policy.OnSendFailure(ob.To, err) {
	case app.KickMember:
		// Closing the sink ends its read loop, which reports the disconnect
		// and runs the regular cleanup path.
		logger.Warn().Err(err).Msg("slow member kicked")
		ob.To.Sink.Close()
	case app.DropEvent:
		logger.Warn().Err(err).Msg("event dropped")
	case app.NoAction:
	}
}

// Shutdown closes every registered sink so transports drain and disconnect.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, info := range o.Registry.List() {
		for _, m := range o.Registry.Members(info.ID) {
			if ctx.Err() != nil {
				return
			}
			if m.Sink != nil {
				m.Sink.Close()
			}
		}
	}
}
