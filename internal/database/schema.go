package database

import (
	"context"
	"database/sql"
)

// Schema statements executed at startup. CREATE TABLE IF NOT EXISTS
// keeps the call idempotent across restarts; the default role insert
// is ignored on conflict.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		middle_name VARCHAR(50) NULL,
		birth_date DATE NULL,
		gender TINYINT NULL,
		email VARCHAR(255) NULL,
		phone_number VARCHAR(20) NULL,
		telegram_id BIGINT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 0,
		is_email_confirmed TINYINT(1) NOT NULL DEFAULT 0,
		is_phone_confirmed TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_phone (phone_number),
		UNIQUE KEY uq_users_telegram (telegram_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_roles_name (name)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		role_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_user_roles_user (user_id),
		CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS verification_codes (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		purpose VARCHAR(32) NOT NULL,
		code INT NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		KEY idx_codes_user (user_id),
		CONSTRAINT fk_codes_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS qr_sessions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		token VARCHAR(128) NOT NULL,
		url VARCHAR(512) NOT NULL,
		user_id BIGINT UNSIGNED NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_qr_token (token)
	) ENGINE=InnoDB`,
	`INSERT IGNORE INTO roles (id, name) VALUES (1, 'user')`,
}

// EnsureSchema creates missing tables and seeds the default role.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
