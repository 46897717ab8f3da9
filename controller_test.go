package raop

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aler9/raop/pkg/alac"
	"github.com/aler9/raop/pkg/clock"
	"github.com/aler9/raop/pkg/pcm"
)

func newTestController() *Controller {
	g := NewReceiverGroup(clock.New(), NewPipeline(nil, nil))
	return g.controller
}

func TestControllerHappyPath(t *testing.T) {
	c := newTestController()
	require.Equal(t, StateIdle, c.State())

	require.NoError(t, c.BeginConnecting())
	require.Equal(t, StateConnecting, c.State())

	require.NoError(t, c.BeginStreaming())
	require.Equal(t, StateStreaming, c.State())

	c.Teardown()
	require.Equal(t, StateTornDown, c.State())
}

func TestControllerInvalidTransition(t *testing.T) {
	c := newTestController()
	err := c.BeginStreaming()
	require.Error(t, err)
}

func TestControllerPauseResume(t *testing.T) {
	c := newTestController()
	require.NoError(t, c.BeginConnecting())
	require.NoError(t, c.BeginStreaming())

	require.NoError(t, c.Pause(nil))
	require.Equal(t, StatePaused, c.State())

	require.NoError(t, c.BeginStreaming())
	require.Equal(t, StateStreaming, c.State())
}

func TestControllerPauseTimeoutTearsDown(t *testing.T) {
	c := newTestController()
	require.NoError(t, c.BeginConnecting())
	require.NoError(t, c.BeginStreaming())

	timedOut := make(chan struct{})
	require.NoError(t, c.Pause(func() { close(timedOut) }))

	select {
	case <-timedOut:
	case <-time.After(DefaultPauseTeardownTimeout + 500*time.Millisecond):
		t.Fatal("pause did not escalate to teardown in time")
	}

	require.Equal(t, StateTornDown, c.State())
}

func TestControllerTeardownAlwaysLegal(t *testing.T) {
	c := newTestController()
	c.Teardown()
	require.Equal(t, StateTornDown, c.State())
}

func TestControllerRunRejectsWrongState(t *testing.T) {
	c := newTestController()
	err := c.Run(context.Background())
	require.Error(t, err)
}

func TestControllerRunStopsOnPipelineExhaustion(t *testing.T) {
	c := newTestController()
	require.NoError(t, c.BeginConnecting())
	require.NoError(t, c.BeginStreaming())
	c.group.pipeline = NewPipeline(pcm.NewSilence(0), nil)

	err := c.Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestControllerRunRespectsContextCancellation(t *testing.T) {
	c := newTestController()
	require.NoError(t, c.BeginConnecting())
	require.NoError(t, c.BeginStreaming())
	c.group.pipeline = NewPipeline(pcm.NewSilence(1_000_000), alac.PassthroughEncoder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx))
}
