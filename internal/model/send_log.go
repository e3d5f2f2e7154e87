// internal/model/send_log.go
package model

import "time"

// SendLogEntry is the immutable audit record of one confirmed dispatch.
// It is append-only: later retries or resends of the same recipient add new
// entries, they never touch existing ones.
type SendLogEntry struct {
    ID      string    `db:"id" json:"id"`
    Name    string    `db:"name" json:"name"`
    Email   string    `db:"email" json:"email"`
    Subject string    `db:"subject" json:"subject"`
    Body    string    `db:"body" json:"body"`
    SentAt  time.Time `db:"sent_at" json:"sent_at"`
}
