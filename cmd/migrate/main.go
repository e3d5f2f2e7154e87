// cmd/migrate/main.go
package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pixelsolve/coldmailer-backend/internal/db"
	"github.com/pixelsolve/coldmailer-backend/internal/repository"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

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

	logger.Info("migrations applied", zap.String("driver", driver))
}
