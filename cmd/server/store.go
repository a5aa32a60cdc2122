package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iliyamo/intervention-decision-service/internal/config"
	"github.com/iliyamo/intervention-decision-service/internal/database"
)

// openStore connects to the configured backend.
func openStore(cfg config.Config) (*sql.DB, database.Dialect, error) {
	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, "", err
	}
	if dialect == database.SQLite {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := database.OpenSQLite(cfg.SQLitePath)
		return db, dialect, err
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return db, dialect, err
}
