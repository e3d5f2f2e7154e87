package repository

import (
    "github.com/pixelsolve/coldmailer-backend/internal/model"
)

// SentStats aggregates confirmed sends for the stats boundary.
type SentStats struct {
    SentToday int `json:"total_sent_today"`
    SentAll   int `json:"total_sent_all"`
}

// Ledger is the persistence interface for generation outcomes and the
// append-only send log. Outcome updates are keyed by (email, content) so
// a retry only touches the row it actually dispatched.
type Ledger interface {
    // Generation outcomes
    InsertOutcome(o *model.GenerationOutcome) error
    UpdateOutcomeStatus(email, content, status, errText string) error
    ListBySessionStatus(sessionID, status string) ([]model.GenerationOutcome, error)
    ListSentByEmails(sessionID string, emails []string) ([]model.GenerationOutcome, error)
    HandledAddresses() (map[string]bool, error)
    RecentOutcomes(limit int) ([]model.GenerationOutcome, error)

    // Send audit log
    AppendSendLog(e *model.SendLogEntry) error

    // Statistics
    CountSent() (SentStats, error)
    SentOutcomes() ([]model.GenerationOutcome, error)

    // Lifecycle
    Migrate() error
}
