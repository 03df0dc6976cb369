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

const commentColumns = `
	id, blog_id, user_id, parent_id, content, status, name, email, edited,
	created_at, updated_at`

// CommentStore handles comment persistence and thread retrieval.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row interface{ Scan(...any) error }) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(
		&c.ID, &c.BlogID, &c.UserID, &c.ParentID, &c.Content, &c.Status,
		&c.Name, &c.Email, &c.Edited, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID retrieves a comment by UUID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Create inserts a comment. The caller supplies the moderation status
// (the configured default for new comments) and the cached display info.
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	created, err := scanComment(s.db.QueryRow(`
		INSERT INTO comments (blog_id, user_id, parent_id, content, status, name, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+commentColumns,
		c.BlogID, c.UserID, c.ParentID, c.Content, string(c.Status), c.Name, c.Email))
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return created, nil
}

// UpdateContent replaces the comment body and marks it edited.
func (s *CommentStore) UpdateContent(id uuid.UUID, content string) error {
	_, err := s.db.Exec(`
		UPDATE comments SET content = $1, edited = TRUE, updated_at = NOW()
		WHERE id = $2
	`, content, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes a comment. Replies cascade via the FK.
func (s *CommentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// ListApprovedTree returns the approved comments of a post assembled
// into a reply tree: top-level comments newest first, replies under
// their parents oldest first, depths capped.
func (s *CommentStore) ListApprovedTree(blogID uuid.UUID) ([]*models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+` FROM comments
		WHERE blog_id = $1 AND status = 'approved'
		ORDER BY created_at DESC
	`, blogID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var flat []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models.BuildCommentTree(flat), nil
}

// CountApproved returns the number of approved comments on a post.
func (s *CommentStore) CountApproved(blogID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM comments WHERE blog_id = $1 AND status = 'approved'
	`, blogID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
