// internal/db/db.go
package db

import (
    "database/sql"
    "fmt"
    "os"

    _ "github.com/lib/pq"
    "github.com/rotisserie/eris"
    "go.uber.org/zap"
    _ "modernc.org/sqlite"
)

// Open connects to the ledger database. DB_DRIVER selects the backend:
// "postgres" (default) reads DATABASE_URL or the DB_* variables,
// "sqlite" reads SQLITE_PATH (":memory:" works for local runs).
func Open() (*sql.DB, string, error) {
    driver := os.Getenv("DB_DRIVER")
    if driver == "" {
        driver = "postgres"
    }

    switch driver {
    case "postgres":
        dsn := os.Getenv("DATABASE_URL")
        if dsn == "" {
            dsn = fmt.Sprintf(
                "postgres://%s:%s@%s:%s/%s?sslmode=disable",
                os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
                os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
            )
        }
        conn, err := sql.Open("postgres", dsn)
        if err != nil {
            return nil, "", eris.Wrap(err, "db: open postgres")
        }
        if err := conn.Ping(); err != nil {
            conn.Close()
            return nil, "", eris.Wrap(err, "db: ping postgres")
        }
        zap.L().Info("connected to database", zap.String("driver", driver))
        return conn, driver, nil

    case "sqlite":
        path := os.Getenv("SQLITE_PATH")
        if path == "" {
            path = "coldmailer.db"
        }
        conn, err := sql.Open("sqlite", path)
        if err != nil {
            return nil, "", eris.Wrap(err, "db: open sqlite")
        }
        for _, pragma := range []string{
            "PRAGMA journal_mode=WAL",
            "PRAGMA busy_timeout=5000",
            "PRAGMA synchronous=NORMAL",
        } {
            if _, err := conn.Exec(pragma); err != nil {
                conn.Close()
                return nil, "", eris.Wrapf(err, "db: exec %s", pragma)
            }
        }
        zap.L().Info("connected to database", zap.String("driver", driver), zap.String("path", path))
        return conn, driver, nil
    }

    return nil, "", eris.Errorf("db: unknown driver %q", driver)
}
