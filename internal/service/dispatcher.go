// internal/service/dispatcher.go
package service

import (
    "context"
    "math/rand/v2"
    "time"

    "go.uber.org/zap"

    "github.com/pixelsolve/coldmailer-backend/internal/mailer"
    "github.com/pixelsolve/coldmailer-backend/internal/model"
    "github.com/pixelsolve/coldmailer-backend/internal/progress"
    "github.com/pixelsolve/coldmailer-backend/internal/repository"
)

// Mode selects the source rows and destination status of a dispatch run.
type Mode string

const (
    ModeSend   Mode = "send"   // Ready rows → SENT
    ModeRetry  Mode = "retry"  // FAILED rows → SENT
    ModeResend Mode = "resend" // explicitly listed SENT rows → RESENT
)

// DispatchJob parameterizes one dispatch run. It is also the queue payload
// published by the control boundary and consumed by the worker.
type DispatchJob struct {
    SessionID string   `json:"session_id"`
    Mode      Mode     `json:"mode"`
    BatchSize int      `json:"batch_size"`
    DelayMin  int      `json:"delay_min"`
    DelayMax  int      `json:"delay_max"`
    Emails    []string `json:"emails,omitempty"`
}

// DispatchResult summarizes a completed run.
type DispatchResult struct {
    SessionID       string `json:"session_id"`
    Mode            Mode   `json:"mode"`
    Total           int    `json:"total"`
    Sent            int    `json:"sent"`
    Failed          int    `json:"failed"`
    Batches         int    `json:"batches"`
    InterBatchWaits int    `json:"inter_batch_waits"`
}

// Dispatcher is the batch send state machine:
// Idle → Sending → WaitingBatch(n) → Sending → … → Done, with
// Sending → RateLimitedWaiting → Sending on throttle signals. Per-item
// failures never halt the machine.
type Dispatcher struct {
    Ledger  repository.Ledger
    Sender  mailer.Sender
    Tracker *progress.Tracker
    Guard   *SessionGuard

    // Cooldown applied on a throttle signal before re-attempting the same
    // item. Zero means 60s.
    Cooldown time.Duration
}

func (d *Dispatcher) cooldown() time.Duration {
    if d.Cooldown <= 0 {
        return 60 * time.Second
    }
    return d.Cooldown
}

func phaseFor(mode Mode) string {
    switch mode {
    case ModeRetry:
        return progress.PhaseRetrying
    case ModeResend:
        return progress.PhaseResending
    default:
        return progress.PhaseSending
    }
}

// Run executes one dispatch run to completion. Per-item send failures are
// recorded and skipped over; only ledger failures or cancellation abort.
func (d *Dispatcher) Run(ctx context.Context, job DispatchJob) (*DispatchResult, error) {
    if d.Guard != nil {
        if err := d.Guard.Acquire(job.SessionID); err != nil {
            return nil, err
        }
        defer d.Guard.Release(job.SessionID)
    }

    rows, err := d.selectRows(job)
    if err != nil {
        d.Tracker.Fail(err)
        return nil, err
    }

    batchSize := job.BatchSize
    if batchSize < 1 {
        batchSize = 10
    }
    batches := partition(rows, batchSize)
    phase := phaseFor(job.Mode)
    destStatus := model.StatusSent
    if job.Mode == ModeResend {
        destStatus = model.StatusResent
    }

    result := &DispatchResult{
        SessionID: job.SessionID,
        Mode:      job.Mode,
        Total:     len(rows),
        Batches:   len(batches),
    }

    d.Tracker.SetPhase(phase)
    d.Tracker.SetBatch(0, len(batches))
    d.Tracker.SetWait(0)

    processed := make(map[string]bool, len(rows))
    for bi, batch := range batches {
        d.Tracker.SetBatch(bi+1, len(batches))

        for _, row := range batch {
            if ctx.Err() != nil {
                d.Tracker.SetMessage("dispatch cancelled")
                d.Tracker.SetPhase(progress.PhaseDone)
                return result, ctx.Err()
            }
            if processed[row.Email] {
                continue
            }
            processed[row.Email] = true

            if err := d.dispatchOne(ctx, row, phase, destStatus, result); err != nil {
                return result, err
            }
        }

        if bi < len(batches)-1 {
            wait := randomDelay(job.DelayMin, job.DelayMax)
            d.Tracker.SetPhase(progress.WaitingBatchPhase(bi + 1))
            result.InterBatchWaits++
            if !d.pause(ctx, time.Duration(wait)*time.Second) {
                d.Tracker.SetMessage("dispatch cancelled")
                d.Tracker.SetPhase(progress.PhaseDone)
                return result, ctx.Err()
            }
            d.Tracker.SetPhase(phase)
        }
    }

    d.Tracker.SetBatch(len(batches), len(batches))
    d.Tracker.SetWait(0)
    d.Tracker.SetPhase(progress.PhaseDone)
    zap.L().Info("dispatch run complete",
        zap.String("session_id", job.SessionID),
        zap.String("mode", string(job.Mode)),
        zap.Int("sent", result.Sent),
        zap.Int("failed", result.Failed),
    )
    return result, nil
}

// dispatchOne sends a single ledger row, looping on throttle signals until
// a non-throttle outcome is reached for this item.
func (d *Dispatcher) dispatchOne(ctx context.Context, row model.GenerationOutcome, phase, destStatus string, result *DispatchResult) error {
    subject, body := ParseContent(row.Content)

    for {
        sendErr := d.Sender.Send(row.Email, subject, body)
        if sendErr == nil {
            if err := d.Ledger.UpdateOutcomeStatus(row.Email, row.Content, destStatus, ""); err != nil {
                d.Tracker.Fail(err)
                return err
            }
            if err := d.Ledger.AppendSendLog(&model.SendLogEntry{
                Name:    row.Name,
                Email:   row.Email,
                Subject: subject,
                Body:    body,
            }); err != nil {
                d.Tracker.Fail(err)
                return err
            }
            d.Tracker.SetEmailStatus(row.Email, destStatus, "")
            result.Sent++
            zap.L().Info("email sent", zap.String("email", row.Email), zap.String("status", destStatus))
            return nil
        }

        if mailer.IsThrottleError(sendErr) {
            // Provider-side limit: pause the whole run and re-attempt this
            // same item. The item is not marked failed and does not advance.
            zap.L().Warn("throttle signal, cooling down",
                zap.String("email", row.Email),
                zap.Error(sendErr),
            )
            d.Tracker.SetPhase(progress.PhaseRateLimited)
            if !d.pause(ctx, d.cooldown()) {
                d.Tracker.SetMessage("dispatch cancelled")
                d.Tracker.SetPhase(progress.PhaseDone)
                return ctx.Err()
            }
            d.Tracker.SetPhase(phase)
            continue
        }

        if err := d.Ledger.UpdateOutcomeStatus(row.Email, row.Content, model.StatusFailed, sendErr.Error()); err != nil {
            d.Tracker.Fail(err)
            return err
        }
        d.Tracker.SetEmailStatus(row.Email, model.StatusFailed, sendErr.Error())
        result.Failed++
        zap.L().Warn("email failed", zap.String("email", row.Email), zap.Error(sendErr))
        return nil
    }
}

func (d *Dispatcher) selectRows(job DispatchJob) ([]model.GenerationOutcome, error) {
    switch job.Mode {
    case ModeRetry:
        return d.Ledger.ListBySessionStatus(job.SessionID, model.StatusFailed)
    case ModeResend:
        return d.Ledger.ListSentByEmails(job.SessionID, job.Emails)
    default:
        return d.Ledger.ListBySessionStatus(job.SessionID, model.StatusReady)
    }
}

// pause sleeps for the given duration publishing a per-second countdown.
// Returns false when the context was cancelled mid-wait.
func (d *Dispatcher) pause(ctx context.Context, wait time.Duration) bool {
    seconds := int(wait / time.Second)
    for remaining := seconds; remaining > 0; remaining-- {
        d.Tracker.SetWait(remaining)
        select {
        case <-ctx.Done():
            d.Tracker.SetWait(0)
            return false
        case <-time.After(time.Second):
        }
    }
    if rest := wait % time.Second; rest > 0 {
        select {
        case <-ctx.Done():
            d.Tracker.SetWait(0)
            return false
        case <-time.After(rest):
        }
    }
    d.Tracker.SetWait(0)
    return true
}

func partition(rows []model.GenerationOutcome, size int) [][]model.GenerationOutcome {
    var out [][]model.GenerationOutcome
    for start := 0; start < len(rows); start += size {
        end := start + size
        if end > len(rows) {
            end = len(rows)
        }
        out = append(out, rows[start:end])
    }
    return out
}

func randomDelay(min, max int) int {
    if min < 0 {
        min = 0
    }
    if max < min {
        max = min
    }
    if max == min {
        return min
    }
    return min + rand.IntN(max-min+1)
}
