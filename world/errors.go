package world

import (
	"fmt"

	"github.com/google/uuid"
)

// AssertionError reports a broken core invariant: a chunk circle slot that
// is already occupied when a chunk is loaded into it. Timing also uses it to
// wrap a callback panic whose value is not an error. Neighbor counters and
// equilevels are not checked at runtime and never produce one. These are
// bugs, never expected in steady-state operation.
// Each carries an Incident id so a single occurrence can be correlated
// across the log line the World emits and the value passed to OnFatal.
type AssertionError struct {
	Incident uuid.UUID
	Op       string
	Err      error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("world: assertion failed [%s]: %s: %v", e.Incident, e.Op, e.Err)
}
func (e *AssertionError) Unwrap() error { return e.Err }

func assertionErr(op string, format string, args ...any) *AssertionError {
	return &AssertionError{Incident: uuid.New(), Op: op, Err: fmt.Errorf(format, args...)}
}

// fail routes an AssertionError to the configured OnFatal callback, or
// panics if none was configured; either way it is logged first.
func (w *World) fail(err *AssertionError) {
	w.conf.Log.Error("assertion failure", "incident", err.Incident, "op", err.Op, "err", err.Err)
	if w.conf.OnFatal != nil {
		w.conf.OnFatal(err)
		return
	}
	panic(err)
}
