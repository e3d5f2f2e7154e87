// internal/service/dedup.go
package service

import (
    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/pixelsolve/coldmailer-backend/internal/model"
    "github.com/pixelsolve/coldmailer-backend/internal/repository"
)

// DedupGate drops recipients that are already terminally handled or that
// repeat within the same upload, and stamps survivors with a fresh session.
type DedupGate struct {
    Ledger repository.Ledger
}

// Filter applies the gate to one upload. An address is excluded when it is
// empty, seen earlier in the same batch (first occurrence wins), or already
// SENT / Ready from a prior session. Survivors share one new session id.
func (g *DedupGate) Filter(recipients []model.Recipient) ([]model.Recipient, string, error) {
    handled, err := g.Ledger.HandledAddresses()
    if err != nil {
        return nil, "", err
    }

    sessionID := uuid.NewString()
    seen := make(map[string]bool, len(recipients))
    out := make([]model.Recipient, 0, len(recipients))
    dropped := 0
    for _, r := range recipients {
        if r.Email == "" || seen[r.Email] || handled[r.Email] {
            dropped++
            continue
        }
        seen[r.Email] = true
        r.SessionID = sessionID
        out = append(out, r)
    }

    zap.L().Info("deduplication gate",
        zap.String("session_id", sessionID),
        zap.Int("uploaded", len(recipients)),
        zap.Int("surviving", len(out)),
        zap.Int("dropped", dropped),
    )
    return out, sessionID, nil
}
