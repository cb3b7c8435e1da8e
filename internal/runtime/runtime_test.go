package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/emcregs/config"
)

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(1, 1)
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()

	require.NoError(t, controller.AcquireUpstream(context.Background()))
	controller.ReleaseUpstream()
}

func TestUpstreamSlotsAreBounded(t *testing.T) {
	controller := NewController(NewLimits(4, 1))
	require.NoError(t, controller.AcquireUpstream(context.Background()))
	defer controller.ReleaseUpstream()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, controller.AcquireUpstream(ctx))
}

func TestLimitsFromConfig(t *testing.T) {
	limits := LimitsFromConfig(config.RuntimeConfig{MaxConcurrentRequests: 3, OperationTimeout: time.Second})
	require.Equal(t, 3, limits.MaxConcurrentRequests)
	require.Equal(t, config.DefaultMaxUpstreamCalls, limits.MaxUpstreamCalls)
	require.Equal(t, time.Second, limits.OperationTimeout)
	require.Equal(t, config.DefaultAcquireRequestTimeout, limits.AcquireRequestTimeout)
}
