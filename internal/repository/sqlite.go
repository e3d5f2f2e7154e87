package repository

import (
    "database/sql"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rotisserie/eris"

    "github.com/pixelsolve/coldmailer-backend/internal/model"
)

// SQLiteLedger implements Ledger on modernc.org/sqlite. Used for local
// development and tests; query shape mirrors PostgresLedger with ?
// placeholders and rowid ordering.
type SQLiteLedger struct {
    DB *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS generation_outcomes (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL,
    business_type TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    model_output  TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    error         TEXT NOT NULL DEFAULT '',
    session_id    TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS send_log (
    id      TEXT PRIMARY KEY,
    name    TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    body    TEXT NOT NULL DEFAULT '',
    sent_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_outcomes_session_status ON generation_outcomes(session_id, status);
CREATE INDEX IF NOT EXISTS idx_outcomes_email ON generation_outcomes(email);
CREATE INDEX IF NOT EXISTS idx_send_log_sent_at ON send_log(sent_at);
`

func (r *SQLiteLedger) Migrate() error {
    _, err := r.DB.Exec(sqliteMigration)
    return eris.Wrap(err, "ledger: migrate sqlite")
}

func (r *SQLiteLedger) InsertOutcome(o *model.GenerationOutcome) error {
    if o.ID == "" {
        o.ID = uuid.NewString()
    }
    if o.CreatedAt.IsZero() {
        o.CreatedAt = time.Now().UTC()
    }
    query := `
        INSERT INTO generation_outcomes (id, name, email, business_type, location, model_output, status, error, session_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
    _, err := r.DB.Exec(query, o.ID, o.Name, o.Email, o.BusinessType, o.Location,
        o.Content, o.Status, o.Error, o.SessionID, o.CreatedAt)
    return eris.Wrap(err, "ledger: insert outcome")
}

func (r *SQLiteLedger) UpdateOutcomeStatus(email, content, status, errText string) error {
    query := `UPDATE generation_outcomes SET status=?, error=? WHERE email=? AND model_output=?`
    _, err := r.DB.Exec(query, status, errText, email, content)
    return eris.Wrap(err, "ledger: update outcome status")
}

func (r *SQLiteLedger) ListBySessionStatus(sessionID, status string) ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes WHERE session_id=? AND status=? ORDER BY rowid`
    rows, err := r.DB.Query(query, sessionID, status)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: list by session/status")
    }
    return scanOutcomes(rows)
}

func (r *SQLiteLedger) ListSentByEmails(sessionID string, emails []string) ([]model.GenerationOutcome, error) {
    if len(emails) == 0 {
        return []model.GenerationOutcome{}, nil
    }
    placeholders := make([]string, len(emails))
    args := []interface{}{sessionID}
    for i, e := range emails {
        placeholders[i] = "?"
        args = append(args, e)
    }
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes
        WHERE session_id=? AND status IN ('SENT','RESENT') AND email IN (` +
        strings.Join(placeholders, ",") + `) ORDER BY rowid`
    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: list sent by emails")
    }
    return scanOutcomes(rows)
}

func (r *SQLiteLedger) HandledAddresses() (map[string]bool, error) {
    query := `SELECT DISTINCT email FROM generation_outcomes WHERE status IN ('SENT','RESENT','Ready')`
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: handled addresses")
    }
    defer rows.Close()
    handled := map[string]bool{}
    for rows.Next() {
        var email string
        if err := rows.Scan(&email); err != nil {
            return nil, eris.Wrap(err, "ledger: scan address")
        }
        handled[email] = true
    }
    return handled, eris.Wrap(rows.Err(), "ledger: iterate addresses")
}

func (r *SQLiteLedger) RecentOutcomes(limit int) ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes ORDER BY rowid DESC LIMIT ?`
    rows, err := r.DB.Query(query, limit)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: recent outcomes")
    }
    return scanOutcomes(rows)
}

func (r *SQLiteLedger) AppendSendLog(e *model.SendLogEntry) error {
    if e.ID == "" {
        e.ID = uuid.NewString()
    }
    if e.SentAt.IsZero() {
        e.SentAt = time.Now().UTC()
    }
    query := `INSERT INTO send_log (id, name, email, subject, body, sent_at) VALUES (?, ?, ?, ?, ?, ?)`
    _, err := r.DB.Exec(query, e.ID, e.Name, e.Email, e.Subject, e.Body, e.SentAt)
    return eris.Wrap(err, "ledger: append send log")
}

func (r *SQLiteLedger) CountSent() (SentStats, error) {
    var stats SentStats
    err := r.DB.QueryRow(`SELECT COUNT(*) FROM send_log WHERE DATE(sent_at) = DATE('now')`).Scan(&stats.SentToday)
    if err != nil {
        return stats, eris.Wrap(err, "ledger: count sent today")
    }
    err = r.DB.QueryRow(`SELECT COUNT(*) FROM send_log`).Scan(&stats.SentAll)
    return stats, eris.Wrap(err, "ledger: count sent all")
}

func (r *SQLiteLedger) SentOutcomes() ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes WHERE status IN ('SENT','RESENT') ORDER BY rowid`
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: sent outcomes")
    }
    return scanOutcomes(rows)
}

// NewLedger picks the implementation matching the driver internal/db opened.
func NewLedger(conn *sql.DB, driver string) Ledger {
    if driver == "sqlite" {
        return &SQLiteLedger{DB: conn}
    }
    return &PostgresLedger{DB: conn}
}

var _ Ledger = (*SQLiteLedger)(nil)
