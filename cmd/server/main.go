// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pixelsolve/coldmailer-backend/internal/controller"
	"github.com/pixelsolve/coldmailer-backend/internal/db"
	"github.com/pixelsolve/coldmailer-backend/internal/genai"
	"github.com/pixelsolve/coldmailer-backend/internal/handler"
	"github.com/pixelsolve/coldmailer-backend/internal/mailer"
	"github.com/pixelsolve/coldmailer-backend/internal/progress"
	"github.com/pixelsolve/coldmailer-backend/internal/queue"
	"github.com/pixelsolve/coldmailer-backend/internal/reporting"
	"github.com/pixelsolve/coldmailer-backend/internal/repository"
	"github.com/pixelsolve/coldmailer-backend/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}

	conn, driver, err := db.Open()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer conn.Close()

	ledger := repository.NewLedger(conn, driver)
	if err := ledger.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	tracker := progress.NewTracker()
	guard := service.NewSessionGuard()

	generator := &service.Generator{
		Ledger:  ledger,
		Client:  genai.NewClient(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("GEN_MODEL")),
		Tracker: tracker,
		Guard:   guard,
	}

	sender := &mailer.SMTPSender{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		FromName: os.Getenv("SMTP_FROM_NAME"),
	}

	dispatcher := &service.Dispatcher{
		Ledger:  ledger,
		Sender:  sender,
		Tracker: tracker,
		Guard:   guard,
	}

	amqpURL := os.Getenv("AMQP_URL")
	q := queue.NewInMemoryQueue(logger)
	if amqpURL == "" {
		// No broker configured, dispatch runs in-process.
		queue.StartDispatchSubscriber(q, dispatcher, logger)
	}

	outreach := &controller.OutreachController{
		Tracker:   tracker,
		Gate:      &service.DedupGate{Ledger: ledger},
		Generator: generator,
		Guard:     guard,
		Ledger:    ledger,
		Queue:     q,
		Logger:    logger,
		AMQPURL:   amqpURL,
	}

	statsHandler := handler.NewStatsHandler(&reporting.Reporter{Ledger: ledger}, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/upload", outreach.Upload)
	r.Get("/api/progress", outreach.Progress)
	r.Post("/api/send", outreach.Send)
	r.Post("/api/retry_failed", outreach.RetryFailed)
	r.Post("/api/resend", outreach.Resend)
	r.Get("/api/logs", outreach.Logs)
	r.Get("/api/stats", statsHandler.GetStatsHandler)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger.Info("server running", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
