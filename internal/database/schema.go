package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The decisions table carries UNIQUE(user_id, decision_idx); the ledger's
// at-most-once guarantee relies on it.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id            VARCHAR(191) NOT NULL PRIMARY KEY,
		rl_start_date      DATETIME     NOT NULL,
		rl_end_date        DATETIME     NOT NULL,
		morning_start_hour INT          NOT NULL,
		morning_end_hour   INT          NOT NULL,
		evening_start_hour INT          NOT NULL,
		evening_end_hour   INT          NOT NULL,
		created_at         DATETIME     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_status (
		user_id                VARCHAR(191) NOT NULL PRIMARY KEY,
		study_phase            VARCHAR(16)  NOT NULL,
		current_decision_index INT          NOT NULL DEFAULT 0,
		updated_at             DATETIME     NOT NULL,
		CONSTRAINT fk_user_status_user FOREIGN KEY (user_id) REFERENCES users(user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS decisions (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id            VARCHAR(191)    NOT NULL,
		decision_idx       INT             NOT NULL,
		decision_time      INT             NOT NULL,
		action             TINYINT         NOT NULL,
		action_prob        DOUBLE          NOT NULL,
		random_state       BIGINT          NOT NULL,
		state              TEXT            NOT NULL,
		reward             DOUBLE          NOT NULL,
		decision_timestamp DATETIME        NOT NULL,
		model_parameters   TEXT            NOT NULL,
		request_timestamp  DATETIME        NOT NULL,
		created_at         DATETIME        NOT NULL,
		UNIQUE KEY uq_decisions_user_idx (user_id, decision_idx),
		CONSTRAINT fk_decisions_user FOREIGN KEY (user_id) REFERENCES users(user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS engagements (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id         VARCHAR(191)    NOT NULL,
		engagement_time DATETIME        NOT NULL,
		upload_time     DATETIME        NOT NULL,
		KEY idx_engagements_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS study_data (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id           VARCHAR(191)    NOT NULL,
		decision_idx      INT             NOT NULL,
		action            TINYINT         NOT NULL,
		action_prob       DOUBLE          NOT NULL,
		decision_time     INT             NOT NULL,
		state             TEXT            NOT NULL,
		reward            DOUBLE          NOT NULL,
		outcome           INT             NOT NULL,
		observed_at       DATETIME        NOT NULL,
		request_timestamp DATETIME        NOT NULL,
		created_at        DATETIME        NOT NULL,
		KEY idx_study_data_user_idx (user_id, decision_idx)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id            TEXT     NOT NULL PRIMARY KEY,
		rl_start_date      DATETIME NOT NULL,
		rl_end_date        DATETIME NOT NULL,
		morning_start_hour INTEGER  NOT NULL,
		morning_end_hour   INTEGER  NOT NULL,
		evening_start_hour INTEGER  NOT NULL,
		evening_end_hour   INTEGER  NOT NULL,
		created_at         DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_status (
		user_id                TEXT     NOT NULL PRIMARY KEY REFERENCES users(user_id),
		study_phase            TEXT     NOT NULL,
		current_decision_index INTEGER  NOT NULL DEFAULT 0,
		updated_at             DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		id                 INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id            TEXT     NOT NULL REFERENCES users(user_id),
		decision_idx       INTEGER  NOT NULL,
		decision_time      INTEGER  NOT NULL,
		action             INTEGER  NOT NULL,
		action_prob        REAL     NOT NULL,
		random_state       INTEGER  NOT NULL,
		state              TEXT     NOT NULL,
		reward             REAL     NOT NULL,
		decision_timestamp DATETIME NOT NULL,
		model_parameters   TEXT     NOT NULL,
		request_timestamp  DATETIME NOT NULL,
		created_at         DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_decisions_user_idx ON decisions(user_id, decision_idx)`,
	`CREATE TABLE IF NOT EXISTS engagements (
		id              INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id         TEXT     NOT NULL,
		engagement_time DATETIME NOT NULL,
		upload_time     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_engagements_user ON engagements(user_id)`,
	`CREATE TABLE IF NOT EXISTS study_data (
		id                INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id           TEXT     NOT NULL,
		decision_idx      INTEGER  NOT NULL,
		action            INTEGER  NOT NULL,
		action_prob       REAL     NOT NULL,
		decision_time     INTEGER  NOT NULL,
		state             TEXT     NOT NULL,
		reward            REAL     NOT NULL,
		outcome           INTEGER  NOT NULL,
		observed_at       DATETIME NOT NULL,
		request_timestamp DATETIME NOT NULL,
		created_at        DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_study_data_user_idx ON study_data(user_id, decision_idx)`,
}

// Migrate creates the service tables if they do not exist.  Statements run
// one at a time since the MySQL driver rejects multi-statement Exec by default.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := mysqlSchema
	if d == SQLite {
		stmts = sqliteSchema
	}
	for i, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s statement %d: %w", d, i, err)
		}
	}
	return nil
}
