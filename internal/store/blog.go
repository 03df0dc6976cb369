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

const blogColumns = `
	b.id, b.category_id, b.author_id, b.title, b.slug, b.description, b.excerpt,
	b.status, b.views, b.featured, b.reading_time, b.image_key,
	b.meta_description, b.meta_keywords, b.published_at,
	b.is_deleted, b.is_active, b.created_at, b.updated_at`

// blogVirtuals joins in category and author display fields plus the
// like/comment counters shown on cards and detail pages.
const blogVirtuals = `
	c.title, c.slug, COALESCE(u.username, ''), COALESCE(u.full_name, ''),
	(SELECT COUNT(*) FROM likes l WHERE l.blog_id = b.id),
	(SELECT COUNT(*) FROM comments cm WHERE cm.blog_id = b.id AND cm.status = 'approved')`

const blogJoins = `
	FROM blogs b
	JOIN categories c ON c.id = b.category_id
	LEFT JOIN users u ON u.id = b.author_id`

// BlogStore handles blog post persistence, listings, and view counting.
type BlogStore struct {
	db *sql.DB
}

// NewBlogStore creates a new BlogStore.
func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db}
}

func scanBlog(row interface{ Scan(...any) error }) (*models.Blog, error) {
	b := &models.Blog{}
	err := row.Scan(
		&b.ID, &b.CategoryID, &b.AuthorID, &b.Title, &b.Slug, &b.Description, &b.Excerpt,
		&b.Status, &b.Views, &b.Featured, &b.ReadingTime, &b.ImageKey,
		&b.MetaDescription, &b.MetaKeywords, &b.PublishedAt,
		&b.IsDeleted, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		&b.CategoryTitle, &b.CategorySlug, &b.AuthorUsername, &b.AuthorName,
		&b.LikeCount, &b.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindBySlug retrieves a published, visible post by slug with its
// category, author, counters, and tags. Returns nil if not found.
func (s *BlogStore) FindBySlug(slug string) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRow(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.slug = $1 AND b.status = 'published'
		  AND b.is_active = TRUE AND b.is_deleted = FALSE
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by slug: %w", err)
	}
	if err := s.loadTags(b); err != nil {
		return nil, err
	}
	return b, nil
}

// FindBySlugAny retrieves a post by slug regardless of status, for author
// editing and draft previews. Returns nil if not found or soft-deleted.
func (s *BlogStore) FindBySlugAny(slug string) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRow(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.slug = $1 AND b.is_deleted = FALSE
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by slug any: %w", err)
	}
	if err := s.loadTags(b); err != nil {
		return nil, err
	}
	return b, nil
}

// FindByID retrieves a post by UUID regardless of status, for author
// editing. Returns nil if not found or soft-deleted.
func (s *BlogStore) FindByID(id uuid.UUID) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRow(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.id = $1 AND b.is_deleted = FALSE
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by id: %w", err)
	}
	if err := s.loadTags(b); err != nil {
		return nil, err
	}
	return b, nil
}

// SlugExists reports whether any post row uses the slug, including
// soft-deleted ones (slugs are never recycled).
func (s *BlogStore) SlugExists(slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("blog slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new post. published_at is stamped only when the post
// is created directly in the published state.
func (s *BlogStore) Create(b *models.Blog) (*models.Blog, error) {
	var created models.Blog
	err := s.db.QueryRow(`
		INSERT INTO blogs (
			category_id, author_id, title, slug, description, excerpt,
			status, featured, reading_time, image_key, meta_description, meta_keywords,
			published_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			CASE WHEN $7 = 'published' THEN NOW() END)
		RETURNING id, published_at, created_at, updated_at
	`, b.CategoryID, b.AuthorID, b.Title, b.Slug, b.Description, b.Excerpt,
		string(b.Status), b.Featured, b.ReadingTime, b.ImageKey,
		b.MetaDescription, b.MetaKeywords,
	).Scan(&created.ID, &created.PublishedAt, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	b.ID = created.ID
	b.PublishedAt = created.PublishedAt
	b.CreatedAt = created.CreatedAt
	b.UpdatedAt = created.UpdatedAt
	b.IsActive = true
	return b, nil
}

// Update saves the editable fields. published_at is stamped on the first
// transition to published and never changed afterwards, so republishing
// an archived post keeps its original publication date.
func (s *BlogStore) Update(b *models.Blog) error {
	_, err := s.db.Exec(`
		UPDATE blogs SET
			category_id = $1, title = $2, description = $3, excerpt = $4,
			status = $5, featured = $6, reading_time = $7, image_key = $8,
			meta_description = $9, meta_keywords = $10,
			published_at = CASE
				WHEN $5 = 'published' AND published_at IS NULL THEN NOW()
				ELSE published_at
			END,
			updated_at = NOW()
		WHERE id = $11
	`, b.CategoryID, b.Title, b.Description, b.Excerpt,
		string(b.Status), b.Featured, b.ReadingTime, b.ImageKey,
		b.MetaDescription, b.MetaKeywords, b.ID)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// SoftDelete hides the post without removing the row, so likes,
// bookmarks, and comments survive an accidental deletion.
func (s *BlogStore) SoftDelete(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE blogs SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete blog: %w", err)
	}
	return nil
}

// SetImageKey records the storage key of the post's cover image.
func (s *BlogStore) SetImageKey(id uuid.UUID, key string) error {
	_, err := s.db.Exec(`
		UPDATE blogs SET image_key = $2, updated_at = NOW() WHERE id = $1
	`, id, key)
	if err != nil {
		return fmt.Errorf("set blog image key: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter in a single UPDATE so concurrent
// page loads never lose counts.
func (s *BlogStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE blogs SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// List returns a page of published posts matching the filter plus the
// total match count for pagination.
func (s *BlogStore) List(f BlogFilter) ([]models.Blog, int, error) {
	where, args := f.whereClause()

	var total int
	err := s.db.QueryRow(
		`SELECT COUNT(*) `+blogJoins+` WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	query := `SELECT ` + blogColumns + `, ` + blogVirtuals + blogJoins +
		` WHERE ` + where +
		` ORDER BY ` + f.orderClause() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, f.Offset())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	blogs, err := collectBlogs(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadTagsForAll(blogs); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

// ListByAuthor returns every non-deleted post by the author, drafts
// included, newest first. Used for the author's own dashboard.
func (s *BlogStore) ListByAuthor(authorID uuid.UUID) ([]models.Blog, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.author_id = $1 AND b.is_deleted = FALSE
		ORDER BY b.created_at DESC, b.id
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list blogs by author: %w", err)
	}
	defer rows.Close()
	return collectBlogs(rows)
}

// ListFeatured returns up to limit featured published posts, newest first.
func (s *BlogStore) ListFeatured(limit int) ([]models.Blog, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.featured = TRUE AND b.status = 'published'
		  AND b.is_active = TRUE AND b.is_deleted = FALSE
		ORDER BY b.published_at DESC, b.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured blogs: %w", err)
	}
	defer rows.Close()
	return collectBlogs(rows)
}

// ListRelated returns up to limit other published posts from the same
// category, newest first.
func (s *BlogStore) ListRelated(b *models.Blog, limit int) ([]models.Blog, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumns+`, `+blogVirtuals+blogJoins+`
		WHERE b.category_id = $1 AND b.id <> $2 AND b.status = 'published'
		  AND b.is_active = TRUE AND b.is_deleted = FALSE
		ORDER BY b.published_at DESC, b.id
		LIMIT $3
	`, b.CategoryID, b.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related blogs: %w", err)
	}
	defer rows.Close()
	return collectBlogs(rows)
}

func collectBlogs(rows *sql.Rows) ([]models.Blog, error) {
	var blogs []models.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	return blogs, rows.Err()
}

// loadTags fills the Tags virtual field for one post.
func (s *BlogStore) loadTags(b *models.Blog) error {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, t.description, t.color, t.usage_count, t.created_at
		FROM tags t
		JOIN blog_tags bt ON bt.tag_id = t.id
		WHERE bt.blog_id = $1
		ORDER BY t.name ASC
	`, b.ID)
	if err != nil {
		return fmt.Errorf("load blog tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.UsageCount, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		b.Tags = append(b.Tags, t)
	}
	return rows.Err()
}

func (s *BlogStore) loadTagsForAll(blogs []models.Blog) error {
	for i := range blogs {
		if err := s.loadTags(&blogs[i]); err != nil {
			return err
		}
	}
	return nil
}
