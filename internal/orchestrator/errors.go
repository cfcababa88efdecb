package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionActive is returned by Start when the user already has a
// non-ended session.
var ErrSessionActive = errors.New("session already active")

// ErrNoSession is returned by operations that require an active session.
var ErrNoSession = errors.New("no active session")

// PreconditionError blocks session start. It carries the fields the
// user has to fill in before automation can run. Start performs no side
// effects when returning it.
type PreconditionError struct {
	MissingFields []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot start session, missing: %s", strings.Join(e.MissingFields, ", "))
}

// ScanError wraps a candidate source failure. It aborts the current
// scan cycle only; the session stays active for the next tick.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
