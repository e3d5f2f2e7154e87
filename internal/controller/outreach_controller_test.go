package controller

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pixelsolve/coldmailer-backend/internal/progress"
	"github.com/pixelsolve/coldmailer-backend/internal/queue"
	"github.com/pixelsolve/coldmailer-backend/internal/repository"
	"github.com/pixelsolve/coldmailer-backend/internal/service"
)

type cannedClient struct{ text string }

func (c cannedClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.text, nil
}

func newTestController(t *testing.T) *OutreachController {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ledger := repository.NewLedger(conn, "sqlite")
	require.NoError(t, ledger.Migrate())

	tracker := progress.NewTracker()
	guard := service.NewSessionGuard()
	q := queue.NewInMemoryQueue(zap.NewNop())
	q.Subscribe(queue.DispatchTopic, func(any) error { return nil })

	return &OutreachController{
		Tracker: tracker,
		Gate:    &service.DedupGate{Ledger: ledger},
		Generator: &service.Generator{
			Ledger:  ledger,
			Client:  cannedClient{text: "Subject: Hello\n\nHi Team,\nclean body"},
			Tracker: tracker,
			Guard:   guard,
		},
		Guard:  guard,
		Ledger: ledger,
		Queue:  q,
		Logger: zap.NewNop(),
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func leadsWorkbook(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"Business Name", "Email", "City", "Country"},
		{"Blue Bean", "info@bluebean.co", "Nairobi", "Kenya"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestUploadRejectsWrongExtension(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Upload(rec, multipartUpload(t, "leads.csv", []byte("a,b")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ".xlsx")
}

func TestUploadRejectsMissingFile(t *testing.T) {
	c := newTestController(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	c.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStartsGeneration(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Upload(rec, multipartUpload(t, "leads.xlsx", leadsWorkbook(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status    string `json:"status"`
		Total     int    `json:"total"`
		SessionID string `json:"session_id"`
		Filename  string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp.Status)
	assert.Equal(t, 1, resp.Total)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "leads.xlsx", resp.Filename)

	assert.Eventually(t, func() bool {
		snap := c.Tracker.Snapshot()
		return snap.Phase == progress.PhaseDone && snap.Done == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestProgressSnapshot(t *testing.T) {
	c := newTestController(t)
	c.Tracker.Reset(5, "s1", "leads.xlsx", "working")

	rec := httptest.NewRecorder()
	c.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "generating", snap["status"])
	assert.Equal(t, float64(5), snap["total"])
	assert.Equal(t, "s1", snap["session_id"])
}

func TestSendWithoutSession(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Send(rec, httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendRejectsActiveSession(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Guard.Acquire("s1"))
	defer c.Guard.Release("s1")

	rec := httptest.NewRecorder()
	c.Send(rec, httptest.NewRequest(http.MethodPost, "/api/send",
		strings.NewReader(`{"session_id":"s1","batch_size":10}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendPublishesJob(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Send(rec, httptest.NewRequest(http.MethodPost, "/api/send",
		strings.NewReader(`{"session_id":"s1","batch_size":10,"delay_min":1,"delay_max":3}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"s1"`)
	assert.Contains(t, rec.Body.String(), `"mode":"send"`)
}

func TestResendRequiresEmails(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Resend(rec, httptest.NewRequest(http.MethodPost, "/api/resend",
		strings.NewReader(`{"session_id":"s1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.Logs(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logs"`)
}
