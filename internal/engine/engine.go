// Package engine abstracts the durable-scheduler backend used to carry a
// world.PendingEffect across a process restart. The turn pipeline's default
// path never touches this package: effects.Engine.ApplyEffects drains
// Scene.PendingEffects in-process on every round advance, at no I/O cost.
// This package exists for host processes that want a pending effect's
// trigger to survive a crash between the round it was scheduled and the
// round it fires — an alternate Engine backend (inmem for tests, temporal
// for production) persists the wait and replays it.
package engine

import (
	"context"
	"time"

	"github.com/duskward/ttrpgcore/internal/telemetry"
)

type (
	// Engine registers workflow definitions and starts workflow executions
	// against a durable backend. Implementations translate these generic
	// types into backend-specific primitives (Temporal workflows, in-memory
	// goroutines).
	Engine interface {
		// RegisterWorkflow registers a workflow definition. Call during
		// service initialization before starting any workflow.
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error

		// StartWorkflow begins a new workflow execution and returns a handle
		// for interacting with it. req.ID must be unique within the engine.
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name.
	WorkflowDefinition struct {
		// Name is the logical identifier registered with the engine (e.g.
		// "pending_effect").
		Name string
		// TaskQueue is the queue new workflow executions are scheduled on.
		TaskQueue string
		// Handler is the workflow function invoked by the engine.
		Handler WorkflowFunc
	}

	// WorkflowFunc is a workflow entry point. It must be deterministic: the
	// same inputs and signal sequence must produce the same execution
	// sequence, since a durable backend may replay it after a crash.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes engine operations to a running workflow.
	// Thread-safety: bound to a single workflow execution, not shared across
	// goroutines.
	WorkflowContext interface {
		// Context returns the Go context for the workflow.
		Context() context.Context

		// WorkflowID returns this execution's unique identifier.
		WorkflowID() string

		// SignalChannel returns the channel for the named signal. Workflow
		// code blocks on Receive to react to an external event (e.g. "round
		// advanced to N") delivered via the backend's signaling mechanism.
		SignalChannel(name string) SignalChannel

		// Logger returns a logger scoped to this workflow execution.
		Logger() telemetry.Logger

		// Metrics returns a metrics recorder scoped to this workflow.
		Metrics() telemetry.Metrics

		// Now returns the current time in a manner safe for replay.
		Now() time.Time
	}

	// WorkflowStartRequest describes how to launch a workflow execution.
	WorkflowStartRequest struct {
		// ID is the workflow identifier; must be unique within the engine.
		ID string
		// Workflow names the registered WorkflowDefinition to execute.
		Workflow string
		// TaskQueue selects the queue to schedule on.
		TaskQueue string
		// Input is the payload passed to the workflow handler.
		Input any
	}

	// WorkflowHandle lets callers interact with a running workflow.
	WorkflowHandle interface {
		// Wait blocks until the workflow completes, returning its result.
		Wait(ctx context.Context) (any, error)

		// Signal sends an asynchronous message to the workflow.
		Signal(ctx context.Context, name string, payload any) error

		// Cancel requests cancellation of the workflow.
		Cancel(ctx context.Context) error
	}

	// SignalChannel exposes signal delivery in a backend-agnostic way.
	SignalChannel interface {
		// Receive blocks until a signal is delivered and decodes it into dest.
		Receive(ctx context.Context, dest any) error
		// ReceiveAsync attempts a non-blocking receive, reporting whether a
		// value was written into dest.
		ReceiveAsync(dest any) bool
	}
)

// RoundAdvancedSignal is the signal name the turn pipeline fires after every
// round advance; its payload is the Scene's new round number. A pending
// effect workflow blocks on this signal until the payload reaches its
// trigger round.
const RoundAdvancedSignal = "round_advanced"

// PendingEffectWorkflowName is the name scheduler hosts register the pending
// effect workflow handler under.
const PendingEffectWorkflowName = "pending_effect"

// PendingEffectInput is the payload StartWorkflow carries for a scheduled
// world.PendingEffect: enough to let the workflow block until its trigger
// round and identify itself to the resolver activity when it fires.
type PendingEffectInput struct {
	EffectID     string
	SceneID      string
	TriggerRound int
}

// PendingEffectOutput is a fired pending effect's workflow result: the host
// resolver (wired in by the caller, not this package) is responsible for
// actually re-applying the effect into persisted game state once notified.
type PendingEffectOutput struct {
	EffectID string
	Fired    bool
}

// PendingEffectWorkflow blocks on RoundAdvancedSignal until the scene's
// round reaches or passes in.TriggerRound, then returns. Host processes
// register this under PendingEffectWorkflowName and start one execution per
// scheduled world.PendingEffect; on completion they re-run the in-process
// effect drain (effects.Engine.ApplyEffects with no new effects) to apply
// it, since this package has no view of world state itself.
func PendingEffectWorkflow(ctx WorkflowContext, input any) (any, error) {
	in, ok := input.(PendingEffectInput)
	if !ok {
		return nil, errInvalidInput
	}
	sig := ctx.SignalChannel(RoundAdvancedSignal)
	for {
		var round int
		if err := sig.Receive(ctx.Context(), &round); err != nil {
			return nil, err
		}
		if round >= in.TriggerRound {
			return PendingEffectOutput{EffectID: in.EffectID, Fired: true}, nil
		}
	}
}

var errInvalidInput = workflowInputError("engine: pending effect workflow received the wrong input type")

type workflowInputError string

func (e workflowInputError) Error() string { return string(e) }
