// internal/errors/errors.go
package appErrors

import (
    "errors"
    "fmt"
)

// ErrNoEligibleRecipients signals that an upload produced zero recipients
// after normalization and deduplication.
var ErrNoEligibleRecipients = errors.New("no eligible recipients after deduplication")

// ErrDispatchActive is a sentinel error for a second operation started
// against a session that already has one running.
type ErrDispatchActive struct {
    SessionID string
}

func (e *ErrDispatchActive) Error() string {
    return fmt.Sprintf("an operation is already running for session %s", e.SessionID)
}

// Helper constructor
func NewDispatchActive(sessionID string) error {
    return &ErrDispatchActive{SessionID: sessionID}
}

// ErrSessionNotFound is a sentinel error for a session id with no ledger rows.
type ErrSessionNotFound struct {
    SessionID string
}

func (e *ErrSessionNotFound) Error() string {
    return fmt.Sprintf("session %s not found", e.SessionID)
}

func NewSessionNotFound(sessionID string) error {
    return &ErrSessionNotFound{SessionID: sessionID}
}
