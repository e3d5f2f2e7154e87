// internal/controller/outreach_controller.go
package controller

import (
    "context"
    "encoding/json"
    "io"
    "net/http"
    "strings"

    "github.com/streadway/amqp"
    "go.uber.org/zap"

    appErrors "github.com/pixelsolve/coldmailer-backend/internal/errors"
    "github.com/pixelsolve/coldmailer-backend/internal/ingest"
    "github.com/pixelsolve/coldmailer-backend/internal/progress"
    "github.com/pixelsolve/coldmailer-backend/internal/queue"
    "github.com/pixelsolve/coldmailer-backend/internal/repository"
    "github.com/pixelsolve/coldmailer-backend/internal/service"
)

const maxUploadBytes = 16 << 20

type OutreachController struct {
    Tracker   *progress.Tracker
    Gate      *service.DedupGate
    Generator *service.Generator
    Guard     *service.SessionGuard
    Ledger    repository.Ledger
    Queue     queue.Queue
    Logger    *zap.Logger

    // AMQPURL routes dispatch jobs through the broker instead of the
    // in-process queue when set.
    AMQPURL string
}

// Upload ingests a spreadsheet, deduplicates its recipients and starts
// content generation in the background.
func (c *OutreachController) Upload(w http.ResponseWriter, r *http.Request) {
    if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
        writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
        return
    }

    file, header, err := r.FormFile("file")
    if err != nil {
        writeError(w, http.StatusBadRequest, "missing file field")
        return
    }
    defer file.Close()

    if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
        writeError(w, http.StatusBadRequest, "please upload a valid .xlsx file")
        return
    }

    data, err := io.ReadAll(file)
    if err != nil {
        writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
        return
    }

    rows, err := ingest.ReadRows(data)
    if err != nil {
        writeError(w, http.StatusBadRequest, "failed to parse spreadsheet: "+err.Error())
        return
    }

    recipients, sessionID, err := c.Gate.Filter(ingest.Normalize(rows))
    if err != nil {
        writeError(w, http.StatusInternalServerError, "failed to check previous recipients: "+err.Error())
        return
    }
    if len(recipients) == 0 {
        writeError(w, http.StatusBadRequest, appErrors.ErrNoEligibleRecipients.Error())
        return
    }

    message := "File '" + header.Filename + "' uploaded. Generating emails..."
    c.Tracker.Reset(len(recipients), sessionID, header.Filename, message)

    go func() {
        if err := c.Generator.Run(context.Background(), recipients, sessionID); err != nil {
            c.Logger.Error("generation run failed",
                zap.String("session_id", sessionID),
                zap.Error(err))
        }
    }()

    writeJSON(w, http.StatusOK, map[string]any{
        "status":     "started",
        "total":      len(recipients),
        "session_id": sessionID,
        "filename":   header.Filename,
        "message":    message,
    })
}

// Progress returns the current snapshot for polling clients.
func (c *OutreachController) Progress(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, c.Tracker.Snapshot())
}

type dispatchRequest struct {
    SessionID string   `json:"session_id"`
    BatchSize int      `json:"batch_size"`
    DelayMin  int      `json:"delay_min"`
    DelayMax  int      `json:"delay_max"`
    Emails    []string `json:"emails"`
}

// Send dispatches the session's Ready rows.
func (c *OutreachController) Send(w http.ResponseWriter, r *http.Request) {
    c.startDispatch(w, r, service.ModeSend)
}

// RetryFailed re-dispatches the session's FAILED rows.
func (c *OutreachController) RetryFailed(w http.ResponseWriter, r *http.Request) {
    c.startDispatch(w, r, service.ModeRetry)
}

// Resend sends again to explicitly listed addresses that were already sent.
func (c *OutreachController) Resend(w http.ResponseWriter, r *http.Request) {
    c.startDispatch(w, r, service.ModeResend)
}

func (c *OutreachController) startDispatch(w http.ResponseWriter, r *http.Request, mode service.Mode) {
    var body dispatchRequest
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid body")
        return
    }

    if body.SessionID == "" {
        body.SessionID = c.Tracker.Snapshot().SessionID
    }
    if body.SessionID == "" {
        writeError(w, http.StatusBadRequest, "no session: upload a file first")
        return
    }
    if mode == service.ModeResend && len(body.Emails) == 0 {
        writeError(w, http.StatusBadRequest, "emails list is required for resend")
        return
    }

    if c.Guard.Active(body.SessionID) {
        writeError(w, http.StatusConflict, appErrors.NewDispatchActive(body.SessionID).Error())
        return
    }

    job := service.DispatchJob{
        SessionID: body.SessionID,
        Mode:      mode,
        BatchSize: body.BatchSize,
        DelayMin:  body.DelayMin,
        DelayMax:  body.DelayMax,
        Emails:    body.Emails,
    }

    if err := c.publish(job); err != nil {
        writeError(w, http.StatusInternalServerError, "failed to queue dispatch: "+err.Error())
        return
    }

    writeJSON(w, http.StatusOK, map[string]any{
        "status":     "started",
        "session_id": job.SessionID,
        "mode":       string(job.Mode),
    })
}

func (c *OutreachController) publish(job service.DispatchJob) error {
    if c.AMQPURL == "" {
        return c.Queue.Publish(queue.DispatchTopic, job)
    }

    conn, err := amqp.Dial(c.AMQPURL)
    if err != nil {
        return err
    }
    defer conn.Close()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer ch.Close()

    q, err := ch.QueueDeclare(queue.DispatchTopic, true, false, false, false, nil)
    if err != nil {
        return err
    }

    payload, err := json.Marshal(job)
    if err != nil {
        return err
    }

    return ch.Publish("", q.Name, false, false, amqp.Publishing{
        ContentType: "application/json",
        Body:        payload,
    })
}

// Logs returns the most recent generation outcomes.
func (c *OutreachController) Logs(w http.ResponseWriter, r *http.Request) {
    outcomes, err := c.Ledger.RecentOutcomes(100)
    if err != nil {
        writeError(w, http.StatusInternalServerError, "failed to load logs: "+err.Error())
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"logs": outcomes})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
    writeJSON(w, status, map[string]string{"error": msg})
}
