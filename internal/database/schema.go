package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; the driver does not run
// multi-statement strings unless multiStatements is set on the DSN.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'ADMIN',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tours (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		slug VARCHAR(160) NOT NULL UNIQUE,
		title VARCHAR(200) NOT NULL,
		region VARCHAR(120) NOT NULL,
		duration_days INT NOT NULL,
		base_price DECIMAL(12,2) NOT NULL,
		summary VARCHAR(500) NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		itinerary JSON NOT NULL,
		highlights JSON NOT NULL,
		inclusions JSON NOT NULL,
		exclusions JSON NOT NULL,
		images JSON NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_tours_region (region)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tour_id BIGINT UNSIGNED NOT NULL,
		customer_name VARCHAR(200) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(40) NOT NULL,
		adults INT NOT NULL,
		children INT NOT NULL DEFAULT 0,
		start_date DATE NOT NULL,
		total_price DECIMAL(12,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		status ENUM('pending','paid','confirmed','cancelled','completed') NOT NULL DEFAULT 'pending',
		payment_gateway VARCHAR(40) NOT NULL,
		gateway_order_id VARCHAR(64) NULL UNIQUE,
		gateway_payment_id VARCHAR(64) NULL,
		notes VARCHAR(1000) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_bookings_status (status),
		CONSTRAINT fk_bookings_tour FOREIGN KEY (tour_id) REFERENCES tours(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS gallery_images (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		image_url VARCHAR(1000) NOT NULL,
		category VARCHAR(80) NOT NULL DEFAULT '',
		sort_order INT NOT NULL DEFAULT 0,
		is_visible TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS testimonials (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		customer_name VARCHAR(200) NOT NULL,
		location VARCHAR(200) NOT NULL DEFAULT '',
		rating TINYINT NOT NULL,
		message TEXT NOT NULL,
		tour_id BIGINT UNSIGNED NULL,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_testimonials_tour FOREIGN KEY (tour_id) REFERENCES tours(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		subject VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		status ENUM('new','read','replied','archived') NOT NULL DEFAULT 'new',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS newsletter_subscribers (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		status ENUM('subscribed','unsubscribed') NOT NULL DEFAULT 'subscribed',
		unsubscribe_token CHAR(36) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table. Existing tables are left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
