package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/metric"
	"github.com/hereon-GEMS/pydidas-sub009/pkg/retry"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/workflow"
)

// sourceState is shared across tree copies so the test can observe and steer
// behavior from outside the worker pool.
type sourceState struct {
	executions     atomic.Int64
	failuresLeft   atomic.Int64 // transient failures to serve before success
	failFrame      int          // frame affected by failuresLeft (-1 for none)
	structuralFail bool

	mu        sync.Mutex
	treesSeen map[*frameSource]bool
}

// frameSource is an input unit whose copies share the test state.
type frameSource struct {
	plugin.BasePlugin
	state *sourceState
}

func newFrameSource(state *sourceState) *frameSource {
	return &frameSource{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{Class: "FrameSource", Name: "frame-source", Kind: plugin.KindInput},
			map[string]any{},
		),
		state: state,
	}
}

func (p *frameSource) Execute(
	_ context.Context, frame int, _ *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	p.state.executions.Add(1)
	p.state.mu.Lock()
	p.state.treesSeen[p] = true
	p.state.mu.Unlock()

	if p.state.structuralFail {
		return nil, nil, fmt.Errorf("broken geometry: %w", errors.ErrInvalidConfig)
	}
	if frame == p.state.failFrame && p.state.failuresLeft.Add(-1) >= 0 {
		return nil, nil, errors.WrapTransient(
			fmt.Errorf("frame %d: %w", frame, errors.ErrFrameUnavailable),
			"FrameSource", "Execute", "frame read")
	}

	out := dataset.New(2, 2)
	out.Data[0] = float64(frame)
	return out, aux, nil
}

func (p *frameSource) OutputShape(_ plugin.Shape) (plugin.Shape, error) {
	return plugin.Shape{2, 2}, nil
}

func (p *frameSource) Copy() plugin.Plugin {
	return &frameSource{BasePlugin: p.CopyBase(), state: p.state}
}

func newSourceState() *sourceState {
	return &sourceState{failFrame: -1, treesSeen: make(map[*frameSource]bool)}
}

func buildTree(t *testing.T, state *sourceState) *workflow.Tree {
	t.Helper()
	wt := workflow.New()
	_, err := wt.SetRootPlugin(newFrameSource(state))
	require.NoError(t, err)
	return wt
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.0,
	}
}

func frameRange(n int) []int {
	frames := make([]int, n)
	for i := range frames {
		frames[i] = i
	}
	return frames
}

func TestRunProcessesEveryFrame(t *testing.T) {
	state := newSourceState()
	r := &Runner{Workers: 4, Retry: fastRetry(1)}

	results, err := r.Run(context.Background(), buildTree(t, state), frameRange(20))
	require.NoError(t, err)
	require.Len(t, results, 20)

	for frame, frameResults := range results {
		require.Len(t, frameResults, 1)
		frameResult := frameResults[0]
		assert.Equal(t, float64(frame), frameResult.Data.Data[0])
	}
}

func TestRunWorkersOperateOnIndependentCopies(t *testing.T) {
	state := newSourceState()
	wt := buildTree(t, state)
	original, err := wt.Plugin(0)
	require.NoError(t, err)

	r := &Runner{Workers: 4, Retry: fastRetry(1)}
	_, err = r.Run(context.Background(), wt, frameRange(32))
	require.NoError(t, err)

	// Workers execute their own plugin instances, never the source tree's.
	state.mu.Lock()
	defer state.mu.Unlock()
	assert.NotEmpty(t, state.treesSeen)
	assert.False(t, state.treesSeen[original.(*frameSource)])
}

func TestRunRetriesTransientFailures(t *testing.T) {
	state := newSourceState()
	state.failFrame = 3
	state.failuresLeft.Store(2)

	metrics := metric.NewRegistry().Core()
	r := &Runner{Workers: 2, Retry: fastRetry(5), Metrics: metrics}

	results, err := r.Run(context.Background(), buildTree(t, state), frameRange(5))
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, float64(3), results[3][0].Data.Data[0])
}

func TestRunAbortsWhenRetriesExhausted(t *testing.T) {
	state := newSourceState()
	state.failFrame = 0
	state.failuresLeft.Store(100)

	r := &Runner{Workers: 1, Retry: fastRetry(3)}

	_, err := r.Run(context.Background(), buildTree(t, state), frameRange(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFrameUnavailable)
}

func TestRunDoesNotRetryNonTransientFailures(t *testing.T) {
	state := newSourceState()
	state.structuralFail = true

	r := &Runner{Workers: 1, Retry: fastRetry(10)}

	_, err := r.Run(context.Background(), buildTree(t, state), frameRange(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Equal(t, int64(1), state.executions.Load(), "config errors must not be retried")
}

func TestRunHonorsContextCancellation(t *testing.T) {
	state := newSourceState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Workers: 2, Retry: fastRetry(1)}
	_, err := r.Run(ctx, buildTree(t, state), frameRange(100))
	require.Error(t, err)
}

func TestRunRejectsNilTree(t *testing.T) {
	r := New(2, nil)
	_, err := r.Run(context.Background(), nil, frameRange(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
