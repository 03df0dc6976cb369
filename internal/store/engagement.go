// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"modernblog/internal/models"
)

// EngagementStore handles likes and bookmarks. Both are unique per
// (user, blog) pair and toggled atomically: the delete-first strategy
// plus ON CONFLICT DO NOTHING keeps concurrent toggles from ever
// producing duplicate rows.
type EngagementStore struct {
	db *sql.DB
}

// NewEngagementStore creates a new EngagementStore.
func NewEngagementStore(db *sql.DB) *EngagementStore {
	return &EngagementStore{db: db}
}

// ToggleLike flips the like state for the (user, blog) pair. Returns
// true when the post ends up liked, false when the like was removed.
func (s *EngagementStore) ToggleLike(userID, blogID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM likes WHERE user_id = $1 AND blog_id = $2
	`, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("toggle like: delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle like: rows affected: %w", err)
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO likes (user_id, blog_id) VALUES ($1, $2)
		ON CONFLICT (user_id, blog_id) DO NOTHING
	`, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("toggle like: insert: %w", err)
	}
	return true, nil
}

// IsLiked reports whether the user has liked the post.
func (s *EngagementStore) IsLiked(userID, blogID uuid.UUID) (bool, error) {
	var liked bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND blog_id = $2)
	`, userID, blogID).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("is liked: %w", err)
	}
	return liked, nil
}

// LikeCount returns the number of likes on a post.
func (s *EngagementStore) LikeCount(blogID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM likes WHERE blog_id = $1`, blogID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("like count: %w", err)
	}
	return n, nil
}

// ToggleBookmark flips the bookmark state for the (user, blog) pair.
// Returns true when the post ends up bookmarked.
func (s *EngagementStore) ToggleBookmark(userID, blogID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM bookmarks WHERE user_id = $1 AND blog_id = $2
	`, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: rows affected: %w", err)
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO bookmarks (user_id, blog_id) VALUES ($1, $2)
		ON CONFLICT (user_id, blog_id) DO NOTHING
	`, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: insert: %w", err)
	}
	return true, nil
}

// IsBookmarked reports whether the user has bookmarked the post.
func (s *EngagementStore) IsBookmarked(userID, blogID uuid.UUID) (bool, error) {
	var saved bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND blog_id = $2)
	`, userID, blogID).Scan(&saved)
	if err != nil {
		return false, fmt.Errorf("is bookmarked: %w", err)
	}
	return saved, nil
}

// UpdateBookmarkNotes sets the personal notes on an existing bookmark.
// Returns false if the user has no bookmark on the post.
func (s *EngagementStore) UpdateBookmarkNotes(userID, blogID uuid.UUID, notes string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE bookmarks SET notes = $1 WHERE user_id = $2 AND blog_id = $3
	`, notes, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("update bookmark notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update bookmark notes: rows affected: %w", err)
	}
	return n > 0, nil
}

// ListBookmarks returns the user's reading list, newest first, with the
// post title and slug for display. Bookmarks pointing at hidden posts
// are skipped.
func (s *EngagementStore) ListBookmarks(userID uuid.UUID) ([]models.Bookmark, error) {
	rows, err := s.db.Query(`
		SELECT bm.id, bm.user_id, bm.blog_id, bm.notes, bm.created_at, b.title, b.slug
		FROM bookmarks bm
		JOIN blogs b ON b.id = bm.blog_id
		WHERE bm.user_id = $1
		  AND b.status = 'published' AND b.is_active = TRUE AND b.is_deleted = FALSE
		ORDER BY bm.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var marks []models.Bookmark
	for rows.Next() {
		var m models.Bookmark
		if err := rows.Scan(&m.ID, &m.UserID, &m.BlogID, &m.Notes, &m.CreatedAt, &m.BlogTitle, &m.BlogSlug); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

// ListLikedBlogIDs returns the IDs of posts the user has liked, for
// marking cards in listings without a per-card query.
func (s *EngagementStore) ListLikedBlogIDs(userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(`SELECT blog_id FROM likes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked ids: %w", err)
	}
	defer rows.Close()

	liked := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked id: %w", err)
		}
		liked[id] = true
	}
	return liked, rows.Err()
}
