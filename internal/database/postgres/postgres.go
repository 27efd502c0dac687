package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"insurance-core/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		_, err = defaultDB.Exec(createQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		slog.Info("Database created", "dbname", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	if !exists {
		if err := executeSchema(db); err != nil {
			slog.Warn("Failed to execute schema.sql, manual schema setup required", "error", err)
		}
	}

	return db, nil
}

// executeSchema reads and executes the schema.sql file
func executeSchema(db *sqlx.DB) error {
	schemaLocations := []string{
		"schema.sql",
		"./schema.sql",
		"/app/schema.sql",
	}

	var schemaSQL []byte
	var err error
	for _, location := range schemaLocations {
		schemaSQL, err = os.ReadFile(location)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("schema.sql not found in any known location: %w", err)
	}

	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	slog.Info("Schema applied")
	return nil
}

// RetryConnectOnFailed keeps retrying the connection in the background until
// it succeeds, replacing the caller's handle on success.
func RetryConnectOnFailed(interval time.Duration, db **sqlx.DB, cfg config.PostgresConfig) {
	for {
		time.Sleep(interval)
		connected, err := ConnectAndCreateDB(cfg)
		if err != nil {
			slog.Error("database reconnect failed", "error", err)
			continue
		}
		*db = connected
		slog.Info("database reconnected")
		return
	}
}
