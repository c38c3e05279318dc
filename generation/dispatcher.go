package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// Dispatcher runs generation calls on a fixed pool of workers so that slow
// backend calls cannot tie up request handling beyond the pool size. It
// implements Generator, so callers submit through Generate.
type Dispatcher struct {
	tasks     chan *task
	workers   int
	generator Generator
	logger    logger.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

type task struct {
	ctx    context.Context
	prompt string
	result chan taskResult
}

type taskResult struct {
	text string
	err  error
}

// NewDispatcher creates a dispatcher with the given number of workers.
func NewDispatcher(workers int, generator Generator, log logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		tasks:     make(chan *task),
		workers:   workers,
		generator: generator,
		logger:    log,
		stopped:   make(chan struct{}),
	}
}

// Start spawns the worker goroutines. They exit when ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info(ctx, "starting generation dispatcher", map[string]interface{}{
		"workers": d.workers,
	})
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop signals the workers to exit and waits for in-flight calls to return.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
	d.wg.Wait()
}

// Generate queues the prompt and waits for a worker to produce the result. If ctx
// ends first, the pending or in-flight backend call is abandoned and cancelled.
func (d *Dispatcher) Generate(ctx context.Context, prompt string) (string, error) {
	t := &task{
		ctx:    ctx,
		prompt: prompt,
		result: make(chan taskResult, 1),
	}

	select {
	case d.tasks <- t:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-d.stopped:
		return "", ErrDispatcherStopped
	}

	select {
	case r := <-t.result:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case t := <-d.tasks:
			d.run(id, t)
		case <-ctx.Done():
			d.logger.Info(ctx, "generation worker stopping", map[string]interface{}{
				"worker_id": id,
			})
			return
		case <-d.stopped:
			return
		}
	}
}

func (d *Dispatcher) run(id int, t *task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(t.ctx, "panic in generation worker", map[string]interface{}{
				"panic":     fmt.Sprintf("%v", r),
				"worker_id": id,
			})
			t.result <- taskResult{err: fmt.Errorf("internal panic: %v", r)}
		}
	}()

	if err := t.ctx.Err(); err != nil {
		t.result <- taskResult{err: err}
		return
	}

	text, err := d.generator.Generate(t.ctx, t.prompt)
	t.result <- taskResult{text: text, err: err}
}
