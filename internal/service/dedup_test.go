package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelsolve/coldmailer-backend/internal/model"
)

func TestDedupGateDropsHandledAndDuplicates(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.outcomes = []model.GenerationOutcome{
		{Email: "sent@x.com", Status: model.StatusSent, SessionID: "old"},
		{Email: "ready@x.com", Status: model.StatusReady, SessionID: "old"},
		{Email: "failed@x.com", Status: model.StatusFailed, SessionID: "old"},
	}
	gate := &DedupGate{Ledger: ledger}

	in := []model.Recipient{
		{Email: "sent@x.com"},   // already sent
		{Email: "ready@x.com"},  // generated, pending send
		{Email: "failed@x.com"}, // failed before, eligible again
		{Email: "new@x.com"},
		{Email: "new@x.com"}, // duplicate within upload
		{Email: ""},
	}
	out, sessionID, err := gate.Filter(in)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	require.Len(t, out, 2)
	assert.Equal(t, "failed@x.com", out[0].Email)
	assert.Equal(t, "new@x.com", out[1].Email)
	for _, r := range out {
		assert.Equal(t, sessionID, r.SessionID)
	}
}

func TestDedupGateIdempotentAcrossUploads(t *testing.T) {
	ledger := &fakeLedger{}
	gate := &DedupGate{Ledger: ledger}

	in := []model.Recipient{{Email: "a@x.com"}, {Email: "b@x.com"}}
	out, _, err := gate.Filter(in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// first upload got generated, second upload of the same file yields nothing
	for _, r := range out {
		require.NoError(t, ledger.InsertOutcome(&model.GenerationOutcome{
			Email: r.Email, Status: model.StatusReady, SessionID: r.SessionID,
		}))
	}
	again, _, err := gate.Filter(in)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSessionGuard(t *testing.T) {
	g := NewSessionGuard()

	require.NoError(t, g.Acquire("s1"))
	assert.True(t, g.Active("s1"))
	assert.Error(t, g.Acquire("s1"))

	// other sessions are independent
	require.NoError(t, g.Acquire("s2"))

	g.Release("s1")
	assert.False(t, g.Active("s1"))
	require.NoError(t, g.Acquire("s1"))
}
