// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records that a user liked a post. At most one row exists per
// (user, blog) pair, enforced by a unique constraint.
type Like struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BlogID    uuid.UUID `json:"blog_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark saves a post for later reading, with optional personal notes.
// Unique per (user, blog) like Like.
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BlogID    uuid.UUID `json:"blog_id"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`

	// Virtual fields for the reading-list page.
	BlogTitle string `json:"blog_title,omitempty"`
	BlogSlug  string `json:"blog_slug,omitempty"`
}
