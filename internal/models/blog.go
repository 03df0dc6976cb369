// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlogStatus represents the publication state of a blog post.
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
	BlogStatusArchived  BlogStatus = "archived"
)

// Blog represents a blog post written in Markdown. Posts belong to one
// category and optionally one author (null when the account was removed).
type Blog struct {
	ID              uuid.UUID  `json:"id"`
	CategoryID      uuid.UUID  `json:"category_id"`
	AuthorID        *uuid.UUID `json:"author_id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"` // Markdown source
	Excerpt         string     `json:"excerpt"`
	Status          BlogStatus `json:"status"`
	Views           int        `json:"views"`
	Featured        bool       `json:"featured"`
	ReadingTime     int        `json:"reading_time"`
	ImageKey        *string    `json:"-"`
	MetaDescription string     `json:"meta_description"`
	MetaKeywords    string     `json:"meta_keywords"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	IsDeleted       bool       `json:"-"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	CategoryTitle  string `json:"category_title,omitempty"`
	CategorySlug   string `json:"category_slug,omitempty"`
	AuthorUsername string `json:"author_username,omitempty"`
	AuthorName     string `json:"author_name,omitempty"`
	Tags           []Tag  `json:"tags,omitempty"`
	LikeCount      int    `json:"like_count"`
	CommentCount   int    `json:"comment_count"`
}

// excerptSyntax strips heading/emphasis/code markers before deriving an
// excerpt; wordSyntax additionally drops link punctuation before counting
// words.
var (
	excerptSyntax = regexp.MustCompile("[#*`]")
	wordSyntax    = regexp.MustCompile("[#*`\\[\\]()]")
)

// excerptLimit is the number of body characters used for auto-generated
// excerpts.
const excerptLimit = 200

// wordsPerMinute is the assumed average reading speed.
const wordsPerMinute = 200

// GetExcerpt returns the stored excerpt, or derives one from the first 200
// characters of the body (plus an ellipsis when truncated).
func (b *Blog) GetExcerpt() string {
	if b.Excerpt != "" {
		return b.Excerpt
	}
	plain := excerptSyntax.ReplaceAllString(b.Description, "")
	runes := []rune(plain)
	if len(runes) > excerptLimit {
		return string(runes[:excerptLimit]) + "..."
	}
	return plain
}

// CalculateReadingTime estimates reading time in minutes from the word
// count at ~200 words per minute, with a minimum of one minute.
func (b *Blog) CalculateReadingTime() int {
	plain := wordSyntax.ReplaceAllString(b.Description, "")
	words := len(strings.Fields(plain))
	minutes := (words + wordsPerMinute/2) / wordsPerMinute // round to nearest
	if minutes < 1 {
		return 1
	}
	return minutes
}

// IsPublished returns true if the post is published and visible.
func (b *Blog) IsPublished() bool {
	return b.Status == BlogStatusPublished && b.IsActive && !b.IsDeleted
}
