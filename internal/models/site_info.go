// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteInfo holds the site-wide settings shown in the public layout
// (site name, contact details, social links). A single row is kept;
// the store returns the most recent one.
type SiteInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoKey     *string   `json:"-"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	X           string    `json:"x"`
	Instagram   string    `json:"instagram"`
	Telegram    string    `json:"telegram"`
	GitHub      string    `json:"github"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
