package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dkeye/Babel/internal/core"
	"github.com/stretchr/testify/require"
)

func TestSimplePolicy(t *testing.T) {
	req := require.New(t)
	p := SimplePolicy{}

	req.Equal(KickMember, p.OnSendFailure(core.Member{}, fmt.Errorf("send: %w", core.ErrBackpressure)))
	req.Equal(NoAction, p.OnSendFailure(core.Member{}, core.ErrSinkClosed))
	req.Equal(DropEvent, p.OnSendFailure(core.Member{}, errors.New("marshal")))
}

func TestTolerantPolicy(t *testing.T) {
	req := require.New(t)
	req.Equal(DropEvent, TolerantPolicy{}.OnSendFailure(core.Member{}, core.ErrBackpressure))
}
