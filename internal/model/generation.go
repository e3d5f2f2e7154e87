// internal/model/generation.go
package model

import "time"

// Outcome statuses. Ready and FAILED are written by the generation phase;
// SENT, FAILED and RESENT overwrite them in place after a dispatch attempt.
const (
    StatusReady  = "Ready"
    StatusFailed = "FAILED"
    StatusSent   = "SENT"
    StatusResent = "RESENT"
)

// GenerationOutcome is one ledger row per attempt to acquire content for a
// recipient. Later attempts for the same address supersede earlier ones for
// send selection; rows are never deleted.
type GenerationOutcome struct {
    ID           string    `db:"id" json:"id"`
    Name         string    `db:"name" json:"name"`
    Email        string    `db:"email" json:"email"`
    BusinessType string    `db:"business_type" json:"business_type"`
    Location     string    `db:"location" json:"location"`
    Content      string    `db:"model_output" json:"model_output"`
    Status       string    `db:"status" json:"status"`
    Error        string    `db:"error" json:"error"`
    SessionID    string    `db:"session_id" json:"session_id"`
    CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
