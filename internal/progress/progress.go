// internal/progress/progress.go
package progress

import (
    "fmt"
    "sync"
)

// Phases reported to polling clients. WaitingBatch phases carry the batch
// index, e.g. "waiting_batch_2".
const (
    PhaseIdle        = "idle"
    PhaseGenerating  = "generating"
    PhaseSending     = "sending"
    PhaseRetrying    = "retrying"
    PhaseResending   = "resending"
    PhaseRateLimited = "rate_limited"
    PhaseDone        = "done"
    PhaseError       = "error"
)

// WaitingBatchPhase returns the waiting phase for a completed batch index.
func WaitingBatchPhase(batch int) string {
    return fmt.Sprintf("waiting_batch_%d", batch)
}

// EmailProgress is the per-recipient view inside a snapshot.
type EmailProgress struct {
    Name     string `json:"name"`
    Business string `json:"business"`
    Content  string `json:"model_output"`
    Status   string `json:"status"`
    Error    string `json:"error"`
}

// State is the snapshot handed to readers. Field names match the dashboard
// polling contract.
type State struct {
    Phase        string                   `json:"status"`
    Total        int                      `json:"total"`
    Done         int                      `json:"done"`
    Emails       map[string]EmailProgress `json:"emails"`
    BatchCurrent int                      `json:"batch_current"`
    BatchTotal   int                      `json:"batch_total"`
    WaitSeconds  int                      `json:"wait_time"`
    SessionID    string                   `json:"session_id"`
    Filename     string                   `json:"filename"`
    Message      string                   `json:"message"`
    Error        string                   `json:"error"`
}

// Tracker is the process-wide shared progress state. A single background
// operation writes at a time; readers only ever see Snapshot copies.
type Tracker struct {
    mu    sync.Mutex
    state State
}

func NewTracker() *Tracker {
    return &Tracker{state: State{Phase: PhaseIdle, Emails: map[string]EmailProgress{}}}
}

// Reset clears the per-email map and starts the generating phase for a
// fresh session.
func (t *Tracker) Reset(total int, sessionID, filename, message string) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state = State{
        Phase:     PhaseGenerating,
        Total:     total,
        Emails:    map[string]EmailProgress{},
        SessionID: sessionID,
        Filename:  filename,
        Message:   message,
    }
}

// RecordDone publishes a recipient's generation result and bumps the done
// counter. Done never decreases.
func (t *Tracker) RecordDone(email string, p EmailProgress) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.Emails[email] = p
    if t.state.Done < t.state.Total {
        t.state.Done++
    }
}

// SetEmailStatus updates one recipient's status/error in place, keeping the
// rest of its row.
func (t *Tracker) SetEmailStatus(email, status, errText string) {
    t.mu.Lock()
    defer t.mu.Unlock()
    p := t.state.Emails[email]
    p.Status = status
    p.Error = errText
    t.state.Emails[email] = p
}

func (t *Tracker) SetPhase(phase string) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.Phase = phase
}

func (t *Tracker) SetBatch(current, total int) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.BatchCurrent = current
    t.state.BatchTotal = total
}

func (t *Tracker) SetWait(seconds int) {
    if seconds < 0 {
        seconds = 0
    }
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.WaitSeconds = seconds
}

func (t *Tracker) SetMessage(msg string) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.Message = msg
}

// Fail records an infrastructure-level error and parks the phase on it.
func (t *Tracker) Fail(err error) {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.state.Phase = PhaseError
    t.state.Error = err.Error()
}

// Snapshot returns a deep copy safe for concurrent readers.
func (t *Tracker) Snapshot() State {
    t.mu.Lock()
    defer t.mu.Unlock()
    out := t.state
    out.Emails = make(map[string]EmailProgress, len(t.state.Emails))
    for k, v := range t.state.Emails {
        out.Emails[k] = v
    }
    return out
}
