package generation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// gatedGenerator blocks every call until release is closed and records the peak
// number of concurrent calls.
type gatedGenerator struct {
	release  chan struct{}
	inFlight int32
	peak     int32
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	n := atomic.AddInt32(&g.inFlight, 1)
	defer atomic.AddInt32(&g.inFlight, -1)
	for {
		p := atomic.LoadInt32(&g.peak)
		if n <= p || atomic.CompareAndSwapInt32(&g.peak, p, n) {
			break
		}
	}

	select {
	case <-g.release:
		return "echo: " + prompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string) (string, error) {
	panic("boom")
}

func TestDispatcher_Generate(t *testing.T) {
	t.Parallel()

	gen := &gatedGenerator{release: make(chan struct{})}
	close(gen.release)

	d := NewDispatcher(2, gen, logger.NewTestLogger())
	d.Start(context.Background())
	defer d.Stop()

	out, err := d.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	gen := &gatedGenerator{release: make(chan struct{})}
	d := NewDispatcher(2, gen, logger.NewTestLogger())
	d.Start(context.Background())
	defer d.Stop()

	var wg sync.WaitGroup
	results := make([]string, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := d.Generate(context.Background(), fmt.Sprintf("p%d", i))
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&gen.inFlight) == 2
	}, time.Second, 5*time.Millisecond)
	close(gen.release)
	wg.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&gen.peak))
	for i, out := range results {
		assert.Equal(t, fmt.Sprintf("echo: p%d", i), out)
	}
}

func TestDispatcher_CallerCancellation(t *testing.T) {
	t.Parallel()

	gen := &gatedGenerator{release: make(chan struct{})}
	defer close(gen.release)

	d := NewDispatcher(1, gen, logger.NewTestLogger())
	d.Start(context.Background())
	defer d.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Generate(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The worker is released by the cancelled context and can take new work.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&gen.inFlight) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_Stopped(t *testing.T) {
	t.Parallel()

	gen := &gatedGenerator{release: make(chan struct{})}
	d := NewDispatcher(1, gen, logger.NewTestLogger())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	_, err := d.Generate(context.Background(), "late")
	assert.ErrorIs(t, err, ErrDispatcherStopped)
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	t.Parallel()

	log := logger.NewTestLogger()
	d := NewDispatcher(1, panicGenerator{}, log)
	d.Start(context.Background())
	defer d.Stop()

	_, err := d.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, log.EntriesAt("error"), 1)

	// The worker survives the panic.
	_, err = d.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewDispatcher_MinimumWorkers(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(0, panicGenerator{}, logger.NewTestLogger())
	assert.Equal(t, 1, d.workers)
}
