// internal/service/generator.go
package service

import (
    "context"
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/pixelsolve/coldmailer-backend/internal/genai"
    "github.com/pixelsolve/coldmailer-backend/internal/model"
    "github.com/pixelsolve/coldmailer-backend/internal/progress"
    "github.com/pixelsolve/coldmailer-backend/internal/repository"
)

// Generator acquires content for every recipient of a session, strictly
// sequentially, and records one GenerationOutcome per recipient.
type Generator struct {
    Ledger  repository.Ledger
    Client  genai.Client
    Tracker *progress.Tracker
    Guard   *SessionGuard

    // Timeout bounds one generation call. Zero means 90s.
    Timeout time.Duration
    // MaxAttempts bounds the placeholder repair loop. Zero means 3.
    MaxAttempts int
}

func (g *Generator) timeout() time.Duration {
    if g.Timeout <= 0 {
        return 90 * time.Second
    }
    return g.Timeout
}

func (g *Generator) maxAttempts() int {
    if g.MaxAttempts <= 0 {
        return 3
    }
    return g.MaxAttempts
}

// Run processes the whole session. The done counter reaches total whether
// recipients succeed or fail; only infrastructure errors abort the run.
func (g *Generator) Run(ctx context.Context, recipients []model.Recipient, sessionID string) error {
    if g.Guard != nil {
        if err := g.Guard.Acquire(sessionID); err != nil {
            return err
        }
        defer g.Guard.Release(sessionID)
    }

    for _, r := range recipients {
        if ctx.Err() != nil {
            g.Tracker.SetMessage("generation cancelled")
            g.Tracker.SetPhase(progress.PhaseDone)
            return ctx.Err()
        }

        content, errText := g.acquire(ctx, r)
        status := model.StatusReady
        if errText != "" {
            status = model.StatusFailed
        }

        outcome := &model.GenerationOutcome{
            Name:         r.Name,
            Email:        r.Email,
            BusinessType: r.BusinessType,
            Location:     r.Location,
            Content:      content,
            Status:       status,
            Error:        errText,
            SessionID:    sessionID,
        }
        if err := g.Ledger.InsertOutcome(outcome); err != nil {
            g.Tracker.Fail(err)
            return err
        }

        g.Tracker.RecordDone(r.Email, progress.EmailProgress{
            Name:     r.Name,
            Business: r.BusinessType,
            Content:  content,
            Status:   status,
            Error:    errText,
        })
        zap.L().Info("generation recorded",
            zap.String("email", r.Email),
            zap.String("status", status),
            zap.String("session_id", sessionID),
        )
    }

    g.Tracker.SetPhase(progress.PhaseDone)
    return nil
}

// acquire runs the bounded repair loop for one recipient. Transport and
// protocol failures are terminal; a placeholder that survives every attempt
// is a content-quality failure with its own error text.
func (g *Generator) acquire(ctx context.Context, r model.Recipient) (content, errText string) {
    attempts := g.maxAttempts()
    for attempt := 0; attempt < attempts; attempt++ {
        callCtx, cancel := context.WithTimeout(ctx, g.timeout())
        text, err := g.Client.Generate(callCtx, genai.BuildPrompt(r, attempt))
        cancel()
        if err != nil {
            return "", fmt.Sprintf("[AI GENERATION ERROR: %v]", err)
        }
        if text == "" {
            return "", "empty response from generation model"
        }
        if !genai.HasPlaceholder(text) {
            return text, ""
        }
        content = text
    }
    return content, fmt.Sprintf("placeholder still present after %d attempts", attempts)
}
