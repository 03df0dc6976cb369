// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"modernblog/internal/models"
)

const categoryColumns = `
	id, title, slug, description, parent_id, sort_order,
	is_deleted, is_active, created_at, updated_at`

// CategoryStore handles category persistence and tree assembly.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder,
		&c.IsDeleted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindBySlug retrieves an active, non-deleted category. Returns nil if
// not found.
func (s *CategoryStore) FindBySlug(slug string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`
		SELECT `+categoryColumns+` FROM categories
		WHERE slug = $1 AND is_active = TRUE AND is_deleted = FALSE
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindByID retrieves a category by UUID regardless of visibility flags.
// Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`
		SELECT `+categoryColumns+` FROM categories WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// SlugExists reports whether any category row uses the slug.
func (s *CategoryStore) SlugExists(slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("category slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new category.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	created, err := scanCategory(s.db.QueryRow(`
		INSERT INTO categories (title, slug, description, parent_id, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		c.Title, c.Slug, c.Description, c.ParentID, c.SortOrder, c.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// ListActive returns all visible categories annotated with the number of
// published posts and their summed view counts (direct posts only, not
// descendants). Ordered by sort_order then title.
func (s *CategoryStore) ListActive() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT ` + categoryColumns + `,
			(SELECT COUNT(*) FROM blogs b
			 WHERE b.category_id = categories.id
			   AND b.status = 'published' AND b.is_active = TRUE AND b.is_deleted = FALSE),
			(SELECT COALESCE(SUM(b.views), 0) FROM blogs b
			 WHERE b.category_id = categories.id
			   AND b.status = 'published' AND b.is_active = TRUE AND b.is_deleted = FALSE)
		FROM categories
		WHERE is_active = TRUE AND is_deleted = FALSE
		ORDER BY sort_order ASC, title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder,
			&c.IsDeleted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
			&c.BlogCount, &c.TotalViews,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Tree assembles the active categories into a parent/child hierarchy.
// Roots are categories without a parent (or whose parent is hidden).
func (s *CategoryStore) Tree() ([]models.Category, error) {
	flat, err := s.ListActive()
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(flat), nil
}

// BuildCategoryTree arranges a flat category slice into a tree. Children
// are sorted by sort_order then title at every level; Depth is filled in.
// Categories whose parent is absent from the slice become roots.
func BuildCategoryTree(flat []models.Category) []models.Category {
	byID := make(map[uuid.UUID]*models.Category, len(flat))
	nodes := make([]*models.Category, len(flat))
	for i := range flat {
		flat[i].Children = nil
		nodes[i] = &flat[i]
		byID[flat[i].ID] = nodes[i]
	}

	var roots []*models.Category
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, *n)
				continue
			}
		}
		roots = append(roots, n)
	}

	var finish func(cats []models.Category, depth int) []models.Category
	finish = func(cats []models.Category, depth int) []models.Category {
		sort.SliceStable(cats, func(i, j int) bool {
			if cats[i].SortOrder != cats[j].SortOrder {
				return cats[i].SortOrder < cats[j].SortOrder
			}
			return cats[i].Title < cats[j].Title
		})
		for i := range cats {
			cats[i].Depth = depth
			// Children were appended as copies before their own children
			// were attached; resolve them through the node map.
			if n, ok := byID[cats[i].ID]; ok {
				cats[i].Children = finish(n.Children, depth+1)
			}
		}
		return cats
	}

	out := make([]models.Category, len(roots))
	for i, r := range roots {
		out[i] = *r
	}
	return finish(out, 0)
}
