// Package ttrpcerr defines the structured error taxonomy used throughout the
// turn engine. Errors never cross a component boundary as panics: every
// public entry point (validator, effect engine, zone graph) converts a
// *GameError into a result envelope field instead of raising it.
package ttrpcerr

import "errors"

// Code classifies a GameError into the taxonomy enumerated by the turn
// pipeline's error handling design. Recovery policy keys off Code, not off
// the message text.
type Code string

const (
	// Schema indicates tool arguments failed JSON-schema validation.
	Schema Code = "schema_validation"
	// Precondition indicates a tool's precondition predicate evaluated false.
	Precondition Code = "precondition_failure"
	// TargetResolution indicates a referenced entity/zone/item does not exist
	// or is the wrong type.
	TargetResolution Code = "target_resolution"
	// Visibility indicates a target is not visible to the acting POV.
	Visibility Code = "visibility"
	// Adjacency indicates a zone is not adjacent or an exit is not usable.
	Adjacency Code = "adjacency"
	// EffectValidation indicates an effect atom is missing a required field
	// or has an incompatible type.
	EffectValidation Code = "effect_validation"
	// Transaction indicates an atom handler failed inside a transactional
	// batch; strict mode rolls the batch back.
	Transaction Code = "transaction_failure"
	// ChoiceExpired indicates a pending choice's expires_round has passed.
	ChoiceExpired Code = "pending_choice_expired"
	// ClarificationExhausted indicates the 4th ask_clarifying in a round
	// fell back to narrate_only.
	ClarificationExhausted Code = "clarification_exhausted"
	// ConditionUnsafe indicates a condition expression used a disallowed
	// AST node and was treated as false.
	ConditionUnsafe Code = "condition_unsafe"
)

// GameError is a structured failure that preserves message and causal
// context while implementing the standard error interface. Errors may nest
// via Cause to retain diagnostics across retries (errors.Is/As walk the
// chain through Unwrap).
type GameError struct {
	Code    Code
	Message string
	Cause   *GameError

	// Reason carries an optional machine-readable sub-classification, used
	// by adjacency failures ("blocked", "invalid", "same_zone", or a
	// condition name) and by visibility failures.
	Reason string
}

// New constructs a GameError with the given code and message.
func New(code Code, message string) *GameError {
	if message == "" {
		message = string(code)
	}
	return &GameError{Code: code, Message: message}
}

// WithReason builds a GameError via New and sets its Reason.
func WithReason(code Code, message, reason string) *GameError {
	e := New(code, message)
	e.Reason = reason
	return e
}

// Wrap converts an arbitrary error into a GameError chain, preserving the
// original as Cause when it is not already a GameError.
func Wrap(code Code, message string, cause error) *GameError {
	e := New(code, message)
	if cause == nil {
		return e
	}
	var ge *GameError
	if errors.As(cause, &ge) {
		e.Cause = ge
		return e
	}
	e.Cause = &GameError{Code: code, Message: cause.Error()}
	return e
}

func (e *GameError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap enables errors.Is/errors.As to walk the cause chain.
func (e *GameError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a GameError with the same Code, so callers
// can write errors.Is(err, ttrpcerr.New(ttrpcerr.Adjacency, "")).
func (e *GameError) Is(target error) bool {
	var ge *GameError
	if !errors.As(target, &ge) {
		return false
	}
	return ge.Code == e.Code
}
