// This file adapts a Temporal workflow.Context into engine.WorkflowContext,
// the interface PendingEffectWorkflow (and any other workflow this engine
// registers) is written against.
package temporal

import (
	"context"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/duskward/ttrpgcore/internal/engine"
	"github.com/duskward/ttrpgcore/internal/telemetry"
)

type temporalWorkflowContext struct {
	engine     *Engine
	ctx        workflow.Context
	workflowID string
}

// newWorkflowContext wraps a Temporal workflow.Context for a single workflow
// execution. Not safe to share across executions: each invocation of a
// registered WorkflowFunc gets its own instance.
func newWorkflowContext(e *Engine, ctx workflow.Context) engine.WorkflowContext {
	info := workflow.GetInfo(ctx)
	return &temporalWorkflowContext{
		engine:     e,
		ctx:        ctx,
		workflowID: info.WorkflowExecution.ID,
	}
}

// Context returns a plain context.Context carrying no deadline or value of
// its own. Temporal's workflow.Context is deliberately not a context.Context;
// workflow code must still go through the workflow.Context stored on this
// wrapper to stay replay-safe, which is why SignalChannel, Now, and every
// other method close over it directly rather than deriving from what this
// returns.
func (w *temporalWorkflowContext) Context() context.Context {
	return context.Background()
}

func (w *temporalWorkflowContext) WorkflowID() string { return w.workflowID }

func (w *temporalWorkflowContext) SignalChannel(name string) engine.SignalChannel {
	return &temporalSignalChannel{ctx: w.ctx, ch: workflow.GetSignalChannel(w.ctx, name)}
}

func (w *temporalWorkflowContext) Logger() telemetry.Logger { return w.engine.logger }

func (w *temporalWorkflowContext) Metrics() telemetry.Metrics { return w.engine.metrics }

func (w *temporalWorkflowContext) Now() time.Time { return workflow.Now(w.ctx) }

type temporalSignalChannel struct {
	ctx workflow.Context
	ch  workflow.ReceiveChannel
}

// Receive blocks until a signal arrives, honoring the workflow context's
// cancellation the way workflow.ReceiveChannel.Receive already does.
func (s *temporalSignalChannel) Receive(_ context.Context, dest any) error {
	s.ch.Receive(s.ctx, dest)
	return nil
}

func (s *temporalSignalChannel) ReceiveAsync(dest any) bool {
	return s.ch.ReceiveAsync(dest)
}
