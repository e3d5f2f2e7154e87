package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/pixelsolve/coldmailer-backend/internal/model"
)

func openTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ledger := &SQLiteLedger{DB: conn}
	require.NoError(t, ledger.Migrate())
	return ledger
}

func seedOutcome(t *testing.T, l *SQLiteLedger, email, content, status, sessionID string) {
	t.Helper()
	require.NoError(t, l.InsertOutcome(&model.GenerationOutcome{
		Name:      "Biz " + email,
		Email:     email,
		Content:   content,
		Status:    status,
		SessionID: sessionID,
	}))
}

func TestSQLiteInsertAndListBySessionStatus(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "a@x.com", "content a", model.StatusReady, "s1")
	seedOutcome(t, ledger, "b@x.com", "content b", model.StatusFailed, "s1")
	seedOutcome(t, ledger, "c@x.com", "content c", model.StatusReady, "s2")

	ready, err := ledger.ListBySessionStatus("s1", model.StatusReady)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "a@x.com", ready[0].Email)
	assert.NotEmpty(t, ready[0].ID)
	assert.False(t, ready[0].CreatedAt.IsZero())

	failed, err := ledger.ListBySessionStatus("s1", model.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b@x.com", failed[0].Email)
}

func TestSQLiteUpdateOutcomeStatusKeyedByEmailAndContent(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "a@x.com", "first draft", model.StatusReady, "s1")
	seedOutcome(t, ledger, "a@x.com", "second draft", model.StatusReady, "s2")

	require.NoError(t, ledger.UpdateOutcomeStatus("a@x.com", "first draft", model.StatusSent, ""))

	s1, err := ledger.ListBySessionStatus("s1", model.StatusSent)
	require.NoError(t, err)
	assert.Len(t, s1, 1)

	// the other row with the same address is untouched
	s2, err := ledger.ListBySessionStatus("s2", model.StatusReady)
	require.NoError(t, err)
	assert.Len(t, s2, 1)
}

func TestSQLiteHandledAddresses(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "sent@x.com", "c", model.StatusSent, "s1")
	seedOutcome(t, ledger, "resent@x.com", "c", model.StatusResent, "s1")
	seedOutcome(t, ledger, "ready@x.com", "c", model.StatusReady, "s1")
	seedOutcome(t, ledger, "failed@x.com", "c", model.StatusFailed, "s1")

	handled, err := ledger.HandledAddresses()
	require.NoError(t, err)
	assert.True(t, handled["sent@x.com"])
	assert.True(t, handled["resent@x.com"])
	assert.True(t, handled["ready@x.com"])
	assert.False(t, handled["failed@x.com"])
}

func TestSQLiteListSentByEmails(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "a@x.com", "c", model.StatusSent, "s1")
	seedOutcome(t, ledger, "b@x.com", "c", model.StatusSent, "s1")
	seedOutcome(t, ledger, "c@x.com", "c", model.StatusFailed, "s1")

	rows, err := ledger.ListSentByEmails("s1", []string{"a@x.com", "c@x.com"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@x.com", rows[0].Email)

	empty, err := ledger.ListSentByEmails("s1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteRecentOutcomesNewestFirst(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "old@x.com", "c", model.StatusReady, "s1")
	seedOutcome(t, ledger, "new@x.com", "c", model.StatusReady, "s1")

	recent, err := ledger.RecentOutcomes(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new@x.com", recent[0].Email)
}

func TestSQLiteSendLogAndCounts(t *testing.T) {
	ledger := openTestLedger(t)
	require.NoError(t, ledger.AppendSendLog(&model.SendLogEntry{
		Name: "A", Email: "a@x.com", Subject: "Hello", Body: "body",
	}))
	require.NoError(t, ledger.AppendSendLog(&model.SendLogEntry{
		Name: "B", Email: "b@x.com", Subject: "Hello", Body: "body",
	}))

	stats, err := ledger.CountSent()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SentAll)
	assert.Equal(t, 2, stats.SentToday)
}

func TestSQLiteSentOutcomes(t *testing.T) {
	ledger := openTestLedger(t)
	seedOutcome(t, ledger, "a@x.com", "c", model.StatusSent, "s1")
	seedOutcome(t, ledger, "b@x.com", "c", model.StatusReady, "s1")

	sent, err := ledger.SentOutcomes()
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "a@x.com", sent[0].Email)
}

func TestNewLedgerPicksDriver(t *testing.T) {
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, ok := NewLedger(conn, "sqlite").(*SQLiteLedger)
	assert.True(t, ok)
	_, ok = NewLedger(conn, "postgres").(*PostgresLedger)
	assert.True(t, ok)
}
