package database

import (
	"context"
	"database/sql"
)

// Migrate applies the schema idempotently. Every statement is a
// CREATE TABLE IF NOT EXISTS, so running it on every startup is
// safe. InnoDB row locking on documents is what serializes the
// read-validate-append-commit sequence of the transition engine, and
// the lower-cased generated column on projects backs case-insensitive
// code uniqueness regardless of the server's collation settings.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			photo_url VARCHAR(1024) NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_refresh_tokens_hash (token_hash),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS projects (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			project_code VARCHAR(64) NOT NULL,
			project_code_lc VARCHAR(64) AS (LOWER(project_code)) STORED,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_projects_code_lc (project_code_lc)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS documents (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name VARCHAR(512) NOT NULL,
			doc_type VARCHAR(32) NOT NULL,
			uploaded_by_name VARCHAR(255) NOT NULL,
			uploaded_by_email VARCHAR(255) NOT NULL,
			upload_date DATETIME NOT NULL,
			status ENUM('In Review','In Progress','Approved','Rejected','Commented') NOT NULL,
			project_code VARCHAR(64) NULL,
			version INT NOT NULL,
			is_latest TINYINT(1) NOT NULL DEFAULT 1,
			file_url VARCHAR(1024) NULL,
			reminder_date DATETIME NULL,
			scratchpad TEXT NULL,
			access_password_hash VARCHAR(255) NULL,
			PRIMARY KEY (id),
			KEY idx_documents_group (name(191), project_code),
			KEY idx_documents_uploader (uploaded_by_email),
			KEY idx_documents_latest (is_latest)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS document_reviewers (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			document_id BIGINT UNSIGNED NOT NULL,
			email VARCHAR(255) NOT NULL,
			role ENUM('Approver','Commenter','Viewer') NOT NULL,
			PRIMARY KEY (id),
			KEY idx_reviewers_doc (document_id),
			KEY idx_reviewers_email (email),
			CONSTRAINT fk_reviewers_document FOREIGN KEY (document_id) REFERENCES documents (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS document_history (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			document_id BIGINT UNSIGNED NOT NULL,
			status ENUM('In Review','In Progress','Approved','Rejected','Commented') NOT NULL,
			entry_date DATETIME NOT NULL,
			user_name VARCHAR(255) NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			comment TEXT NOT NULL,
			version INT NOT NULL,
			PRIMARY KEY (id),
			KEY idx_history_doc (document_id),
			CONSTRAINT fk_history_document FOREIGN KEY (document_id) REFERENCES documents (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
