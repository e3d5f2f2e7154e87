package repository

import (
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rotisserie/eris"

    "github.com/pixelsolve/coldmailer-backend/internal/model"
)

// PostgresLedger implements Ledger on database/sql with lib/pq.
type PostgresLedger struct {
    DB *sql.DB
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS generation_outcomes (
    seq           BIGSERIAL,
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL,
    business_type TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    model_output  TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    error         TEXT NOT NULL DEFAULT '',
    session_id    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS send_log (
    id      TEXT PRIMARY KEY,
    name    TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    body    TEXT NOT NULL DEFAULT '',
    sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_outcomes_session_status ON generation_outcomes(session_id, status);
CREATE INDEX IF NOT EXISTS idx_outcomes_email ON generation_outcomes(email);
CREATE INDEX IF NOT EXISTS idx_send_log_sent_at ON send_log(sent_at);
`

func (r *PostgresLedger) Migrate() error {
    _, err := r.DB.Exec(postgresMigration)
    return eris.Wrap(err, "ledger: migrate postgres")
}

func (r *PostgresLedger) InsertOutcome(o *model.GenerationOutcome) error {
    if o.ID == "" {
        o.ID = uuid.NewString()
    }
    if o.CreatedAt.IsZero() {
        o.CreatedAt = time.Now().UTC()
    }
    query := `
        INSERT INTO generation_outcomes (id, name, email, business_type, location, model_output, status, error, session_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
    _, err := r.DB.Exec(query, o.ID, o.Name, o.Email, o.BusinessType, o.Location,
        o.Content, o.Status, o.Error, o.SessionID, o.CreatedAt)
    return eris.Wrap(err, "ledger: insert outcome")
}

func (r *PostgresLedger) UpdateOutcomeStatus(email, content, status, errText string) error {
    query := `UPDATE generation_outcomes SET status=$1, error=$2 WHERE email=$3 AND model_output=$4`
    _, err := r.DB.Exec(query, status, errText, email, content)
    return eris.Wrap(err, "ledger: update outcome status")
}

const outcomeColumns = "id, name, email, business_type, location, model_output, status, error, session_id, created_at"

func scanOutcomes(rows *sql.Rows) ([]model.GenerationOutcome, error) {
    defer rows.Close()
    out := []model.GenerationOutcome{}
    for rows.Next() {
        var o model.GenerationOutcome
        if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.BusinessType, &o.Location,
            &o.Content, &o.Status, &o.Error, &o.SessionID, &o.CreatedAt); err != nil {
            return nil, eris.Wrap(err, "ledger: scan outcome")
        }
        out = append(out, o)
    }
    return out, eris.Wrap(rows.Err(), "ledger: iterate outcomes")
}

func (r *PostgresLedger) ListBySessionStatus(sessionID, status string) ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes WHERE session_id=$1 AND status=$2 ORDER BY seq`
    rows, err := r.DB.Query(query, sessionID, status)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: list by session/status")
    }
    return scanOutcomes(rows)
}

func (r *PostgresLedger) ListSentByEmails(sessionID string, emails []string) ([]model.GenerationOutcome, error) {
    if len(emails) == 0 {
        return []model.GenerationOutcome{}, nil
    }
    placeholders := make([]string, len(emails))
    args := []interface{}{sessionID}
    for i, e := range emails {
        placeholders[i] = fmt.Sprintf("$%d", i+2)
        args = append(args, e)
    }
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes
        WHERE session_id=$1 AND status IN ('SENT','RESENT') AND email IN (` +
        strings.Join(placeholders, ",") + `) ORDER BY seq`
    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: list sent by emails")
    }
    return scanOutcomes(rows)
}

func (r *PostgresLedger) HandledAddresses() (map[string]bool, error) {
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

func (r *PostgresLedger) RecentOutcomes(limit int) ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes ORDER BY seq DESC LIMIT $1`
    rows, err := r.DB.Query(query, limit)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: recent outcomes")
    }
    return scanOutcomes(rows)
}

func (r *PostgresLedger) AppendSendLog(e *model.SendLogEntry) error {
    if e.ID == "" {
        e.ID = uuid.NewString()
    }
    if e.SentAt.IsZero() {
        e.SentAt = time.Now().UTC()
    }
    query := `INSERT INTO send_log (id, name, email, subject, body, sent_at) VALUES ($1, $2, $3, $4, $5, $6)`
    _, err := r.DB.Exec(query, e.ID, e.Name, e.Email, e.Subject, e.Body, e.SentAt)
    return eris.Wrap(err, "ledger: append send log")
}

func (r *PostgresLedger) CountSent() (SentStats, error) {
    var stats SentStats
    err := r.DB.QueryRow(`SELECT COUNT(*) FROM send_log WHERE sent_at::date = CURRENT_DATE`).Scan(&stats.SentToday)
    if err != nil {
        return stats, eris.Wrap(err, "ledger: count sent today")
    }
    err = r.DB.QueryRow(`SELECT COUNT(*) FROM send_log`).Scan(&stats.SentAll)
    return stats, eris.Wrap(err, "ledger: count sent all")
}

func (r *PostgresLedger) SentOutcomes() ([]model.GenerationOutcome, error) {
    query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes WHERE status IN ('SENT','RESENT') ORDER BY seq`
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, eris.Wrap(err, "ledger: sent outcomes")
    }
    return scanOutcomes(rows)
}

var _ Ledger = (*PostgresLedger)(nil)
