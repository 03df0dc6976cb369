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

const tagColumns = `id, name, slug, description, color, usage_count, created_at`

// TagStore handles tag persistence, post/tag assignment, and the
// denormalized usage counter.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(row interface{ Scan(...any) error }) (*models.Tag, error) {
	t := &models.Tag{}
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.UsageCount, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(slug string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// ListPopular returns the most used tags, busiest first.
func (s *TagStore) ListPopular(limit int) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT `+tagColumns+` FROM tags
		WHERE usage_count > 0
		ORDER BY usage_count DESC, name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// SetBlogTags replaces the tag set of a post. Tag names are matched by
// slug; missing tags are created on the fly. Usage counters of every
// touched tag are recomputed afterwards.
func (s *TagStore) SetBlogTags(blogID uuid.UUID, names []string, slugify func(string) string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set blog tags: %w", err)
	}
	defer tx.Rollback()

	// Remember the previous tags so their counters can be refreshed too.
	touched := map[uuid.UUID]bool{}
	rows, err := tx.Query(`SELECT tag_id FROM blog_tags WHERE blog_id = $1`, blogID)
	if err != nil {
		return fmt.Errorf("set blog tags: previous: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("set blog tags: scan previous: %w", err)
		}
		touched[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("set blog tags: previous rows: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM blog_tags WHERE blog_id = $1`, blogID); err != nil {
		return fmt.Errorf("set blog tags: clear: %w", err)
	}

	for _, name := range names {
		slug := slugify(name)
		if slug == "" {
			continue
		}

		var tagID uuid.UUID
		err := tx.QueryRow(`
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = tags.name
			RETURNING id
		`, name, slug).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("set blog tags: upsert %q: %w", name, err)
		}

		if _, err := tx.Exec(`
			INSERT INTO blog_tags (blog_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, blogID, tagID); err != nil {
			return fmt.Errorf("set blog tags: link %q: %w", name, err)
		}
		touched[tagID] = true
	}

	for tagID := range touched {
		if err := recomputeUsage(tx, tagID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecomputeUsage refreshes a tag's usage counter from the live blog_tags
// rows, counting only published, visible posts.
func (s *TagStore) RecomputeUsage(tagID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("recompute usage: %w", err)
	}
	defer tx.Rollback()
	if err := recomputeUsage(tx, tagID); err != nil {
		return err
	}
	return tx.Commit()
}

func recomputeUsage(tx *sql.Tx, tagID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE tags SET usage_count = (
			SELECT COUNT(*) FROM blog_tags bt
			JOIN blogs b ON b.id = bt.blog_id
			WHERE bt.tag_id = tags.id
			  AND b.status = 'published' AND b.is_active = TRUE AND b.is_deleted = FALSE
		)
		WHERE id = $1
	`, tagID)
	if err != nil {
		return fmt.Errorf("recompute usage: %w", err)
	}
	return nil
}

// RecomputeAllUsage refreshes every tag's usage counter. Called after
// operations that change post visibility in bulk.
func (s *TagStore) RecomputeAllUsage() error {
	_, err := s.db.Exec(`
		UPDATE tags SET usage_count = (
			SELECT COUNT(*) FROM blog_tags bt
			JOIN blogs b ON b.id = bt.blog_id
			WHERE bt.tag_id = tags.id
			  AND b.status = 'published' AND b.is_active = TRUE AND b.is_deleted = FALSE
		)
	`)
	if err != nil {
		return fmt.Errorf("recompute all usage: %w", err)
	}
	return nil
}
