package entities

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a device-driving pass is already in flight.
// It is the expected steady-state answer during the cooldown window, not a
// failure.
var ErrBusy = errors.New("update pass already running")

// TransportError means the device automation surface itself is unreachable.
// It is fatal for the current pass; the next scheduled cycle retries.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("device transport failed during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ElementNotFoundError means a required element stayed absent after the
// bounded search. Recoverable: the orchestrator may reset the app and retry
// once.
type ElementNotFoundError struct {
	Label string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found on screen", e.Label)
}

// MalformedLayoutError means the screen no longer follows the layout
// convention the extractor relies on. Retrying is unlikely to help.
type MalformedLayoutError struct {
	Label  string
	Reason string
}

func (e *MalformedLayoutError) Error() string {
	return fmt.Sprintf("unexpected layout around %q: %s", e.Label, e.Reason)
}

// UnparseableBalanceError carries the raw text that failed numeric parsing.
type UnparseableBalanceError struct {
	Raw string
	Err error
}

func (e *UnparseableBalanceError) Error() string {
	return fmt.Sprintf("cannot parse balance from %q: %v", e.Raw, e.Err)
}

func (e *UnparseableBalanceError) Unwrap() error { return e.Err }
