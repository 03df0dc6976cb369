// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"modernblog/internal/models"
)

const siteInfoColumns = `
	id, name, description, logo_key, phone, email, x, instagram, telegram,
	github, created_at, updated_at`

// SiteInfoStore reads and writes the site-wide settings row.
type SiteInfoStore struct {
	db *sql.DB
}

// NewSiteInfoStore creates a new SiteInfoStore.
func NewSiteInfoStore(db *sql.DB) *SiteInfoStore {
	return &SiteInfoStore{db: db}
}

// Get returns the most recently updated settings row, or nil when none
// has been created yet.
func (s *SiteInfoStore) Get() (*models.SiteInfo, error) {
	info := &models.SiteInfo{}
	err := s.db.QueryRow(`
		SELECT ` + siteInfoColumns + ` FROM site_info
		ORDER BY updated_at DESC LIMIT 1
	`).Scan(
		&info.ID, &info.Name, &info.Description, &info.LogoKey,
		&info.Phone, &info.Email, &info.X, &info.Instagram, &info.Telegram,
		&info.GitHub, &info.CreatedAt, &info.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site info: %w", err)
	}
	return info, nil
}

// Upsert creates the settings row on first save and updates it afterwards.
func (s *SiteInfoStore) Upsert(info *models.SiteInfo) error {
	existing, err := s.Get()
	if err != nil {
		return err
	}

	if existing == nil {
		err = s.db.QueryRow(`
			INSERT INTO site_info (name, description, logo_key, phone, email, x, instagram, telegram, github)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`, info.Name, info.Description, info.LogoKey, info.Phone, info.Email,
			info.X, info.Instagram, info.Telegram, info.GitHub,
		).Scan(&info.ID, &info.CreatedAt, &info.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert site info: %w", err)
		}
		return nil
	}

	_, err = s.db.Exec(`
		UPDATE site_info SET
			name = $1, description = $2, logo_key = $3, phone = $4, email = $5,
			x = $6, instagram = $7, telegram = $8, github = $9, updated_at = NOW()
		WHERE id = $10
	`, info.Name, info.Description, info.LogoKey, info.Phone, info.Email,
		info.X, info.Instagram, info.Telegram, info.GitHub, existing.ID)
	if err != nil {
		return fmt.Errorf("update site info: %w", err)
	}
	return nil
}
