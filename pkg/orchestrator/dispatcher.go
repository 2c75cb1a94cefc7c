package orchestrator

import (
	"context"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
	"github.com/user/thumbextractor/pkg/workerpool"
)

// Engine renders one request. Orchestrator implements it.
type Engine interface {
	Render(ctx context.Context, src ports.ByteSource, req pipeline.RenderRequest) pipeline.RenderOutcome
}

// Dispatcher runs renders on a bounded worker pool.
type Dispatcher struct {
	engine Engine
	pool   *workerpool.Pool
	logger ports.Logger
}

// NewDispatcher creates a dispatcher over an existing pool.
func NewDispatcher(engine Engine, pool *workerpool.Pool, logger ports.Logger) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		pool:   pool,
		logger: logger.WithComponent("dispatcher"),
	}
}

// Render queues the render and waits for its outcome.
//
// Render takes ownership of src and closes it once the render has finished.
// The returned error is non-nil only when ctx ends first or the pool is closed.
// A render that was already admitted keeps running after ctx ends, and its
// outcome is discarded.
func (d *Dispatcher) Render(ctx context.Context, src ports.ByteSource, req pipeline.RenderRequest) (pipeline.RenderOutcome, error) {
	done := make(chan pipeline.RenderOutcome, 1)
	job := func() {
		// The source is closed before the outcome is delivered. A panicking
		// render still answers the caller; the pool recovers the panic.
		outcome := pipeline.RenderOutcome{Kind: pipeline.OutcomeDecodeFailure, Reason: "render aborted"}
		defer func() { done <- outcome }()
		defer closeSource(src)
		outcome = d.engine.Render(context.WithoutCancel(ctx), src, req)
	}

	if err := d.pool.Submit(ctx, job); err != nil {
		closeSource(src)
		return pipeline.RenderOutcome{}, err
	}

	select {
	case outcome := <-done:
		return outcome, nil
	case <-ctx.Done():
		d.logger.Debug("Caller went away, discarding render result: %s", ctx.Err())
		return pipeline.RenderOutcome{}, ctx.Err()
	}
}

func closeSource(src ports.ByteSource) {
	if src != nil {
		src.Close()
	}
}
