// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user, a couple of categories, and a site_info row. It is safe
// to call on every startup — it only writes when the tables are empty.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Default admin. 2FA is not enabled — they must set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, username, password_hash, full_name, is_verified, totp_enabled)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
	`, "admin@modernblog.local", "admin", string(hash), "Site Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO categories (title, slug, description, sort_order) VALUES
		('General', 'general', 'Posts without a more specific home.', 0),
		('Engineering', 'engineering', 'Technical deep dives and how-tos.', 1)
	`)
	if err != nil {
		return fmt.Errorf("seed insert categories: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO site_info (name, description, email)
		VALUES ($1, $2, $3)
	`, "Modern Blog", "Thoughts, stories and ideas.", "hello@modernblog.local")
	if err != nil {
		return fmt.Errorf("seed insert site info: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@modernblog.local",
		"password", "admin",
	)

	return nil
}
