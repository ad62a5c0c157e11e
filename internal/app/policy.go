package app

import (
	"errors"

	"github.com/dkeye/Babel/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	KickMember
)

// Policy decides what happens to a member whose sink refused an event.
type Policy interface {
	OnSendFailure(member core.Member, err error) BackpressureAction
}

// SimplePolicy kicks members that cannot keep up and ignores sinks that are
// already closed (their read loop reports the disconnect on its own).
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(_ core.Member, err error) BackpressureAction {
	switch {
	case errors.Is(err, core.ErrSinkClosed):
		return NoAction
	case errors.Is(err, core.ErrBackpressure):
		return KickMember
	default:
		return DropEvent
	}
}

// TolerantPolicy never kicks; a full sink only loses the event.
type TolerantPolicy struct{}

func (TolerantPolicy) OnSendFailure(core.Member, error) BackpressureAction {
	return DropEvent
}
