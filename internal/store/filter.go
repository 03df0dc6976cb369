// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sort orders for blog listings. SortNewest is the default.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortPopular      = "popular"
	SortTrending     = "trending"
	SortReadingTime  = "reading_time"
	SortAlphabetical = "alphabetical"
)

const (
	// DefaultPerPage is the listing page size.
	DefaultPerPage = 10

	// MaxPerPage caps client-requested page sizes.
	MaxPerPage = 50
)

// BlogFilter describes a blog listing query: free-text search, facet
// filters, sort order, and pagination. The zero value lists all published
// posts, newest first.
type BlogFilter struct {
	Search         string
	CategorySlug   string
	TagSlug        string
	AuthorUsername string
	DateFrom       *time.Time
	DateTo         *time.Time
	MinReadingTime int
	MaxReadingTime int
	FeaturedOnly   bool
	Sort           string
	Page           int
	PerPage        int
}

// ParseBlogFilter builds a BlogFilter from request query parameters.
// Malformed values (bad dates, non-numeric ints, unknown sorts) are
// silently dropped so a mangled URL still renders a sensible listing.
func ParseBlogFilter(q url.Values) BlogFilter {
	f := BlogFilter{
		Search:         strings.TrimSpace(q.Get("q")),
		CategorySlug:   strings.TrimSpace(q.Get("category")),
		TagSlug:        strings.TrimSpace(q.Get("tag")),
		AuthorUsername: strings.TrimSpace(q.Get("author")),
		Sort:           SortNewest,
		Page:           1,
		PerPage:        DefaultPerPage,
	}

	if t, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		f.DateFrom = &t
	}
	if t, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		// Make the upper bound inclusive of the whole day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &end
	}

	if n, err := strconv.Atoi(q.Get("min_read")); err == nil && n > 0 {
		f.MinReadingTime = n
	}
	if n, err := strconv.Atoi(q.Get("max_read")); err == nil && n > 0 {
		f.MaxReadingTime = n
	}

	if q.Get("featured") == "1" || q.Get("featured") == "true" {
		f.FeaturedOnly = true
	}

	switch q.Get("sort") {
	case SortOldest, SortPopular, SortTrending, SortReadingTime, SortAlphabetical:
		f.Sort = q.Get("sort")
	}

	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		f.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 {
		f.PerPage = n
		if f.PerPage > MaxPerPage {
			f.PerPage = MaxPerPage
		}
	}

	return f
}

// Offset returns the row offset for the current page.
func (f BlogFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// orderClause maps the sort name to a SQL ORDER BY expression. Every
// ordering ends with the post ID so pagination is stable across pages.
func (f BlogFilter) orderClause() string {
	switch f.Sort {
	case SortOldest:
		return "b.published_at ASC, b.id"
	case SortPopular:
		return "b.views DESC, b.published_at DESC, b.id"
	case SortTrending:
		return `(SELECT COUNT(*) FROM likes l WHERE l.blog_id = b.id) DESC,
			b.views DESC, b.published_at DESC, b.id`
	case SortReadingTime:
		return "b.reading_time DESC, b.published_at DESC, b.id"
	case SortAlphabetical:
		return "LOWER(b.title) ASC, b.id"
	default:
		return "b.published_at DESC, b.id"
	}
}

// whereClause builds the WHERE conditions and arguments for the filter.
// Only published, visible posts are ever matched; the facet filters use
// EXISTS subqueries so a post never appears twice.
func (f BlogFilter) whereClause() (string, []any) {
	conds := []string{
		"b.status = 'published'",
		"b.is_active = TRUE",
		"b.is_deleted = FALSE",
	}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Search != "" {
		// One placeholder shared across every search axis: post text and
		// metadata directly, category/tag/author via EXISTS so a post with
		// several matching tags still appears once.
		p := arg("%" + f.Search + "%")
		conds = append(conds, `(b.title ILIKE `+p+` OR b.description ILIKE `+p+`
			OR b.excerpt ILIKE `+p+` OR b.meta_keywords ILIKE `+p+`
			OR EXISTS (
				SELECT 1 FROM categories qc
				WHERE qc.id = b.category_id AND qc.title ILIKE `+p+`)
			OR EXISTS (
				SELECT 1 FROM blog_tags qbt
				JOIN tags qt ON qt.id = qbt.tag_id
				WHERE qbt.blog_id = b.id AND qt.name ILIKE `+p+`)
			OR EXISTS (
				SELECT 1 FROM users qu
				WHERE qu.id = b.author_id
				  AND (qu.username ILIKE `+p+` OR qu.full_name ILIKE `+p+`)))`)
	}
	if f.CategorySlug != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM categories c
			WHERE c.id = b.category_id AND c.slug = `+arg(f.CategorySlug)+`
			  AND c.is_active = TRUE AND c.is_deleted = FALSE)`)
	}
	if f.TagSlug != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM blog_tags bt
			JOIN tags t ON t.id = bt.tag_id
			WHERE bt.blog_id = b.id AND t.slug = `+arg(f.TagSlug)+`)`)
	}
	if f.AuthorUsername != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM users u
			WHERE u.id = b.author_id AND u.username = `+arg(f.AuthorUsername)+`)`)
	}
	// Date bounds filter on when the post was written, not when it was
	// published, so a post published after a long draft period still shows
	// up under its original date.
	if f.DateFrom != nil {
		conds = append(conds, "b.created_at >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "b.created_at <= "+arg(*f.DateTo))
	}
	if f.MinReadingTime > 0 {
		conds = append(conds, "b.reading_time >= "+arg(f.MinReadingTime))
	}
	if f.MaxReadingTime > 0 {
		conds = append(conds, "b.reading_time <= "+arg(f.MaxReadingTime))
	}
	if f.FeaturedOnly {
		conds = append(conds, "b.featured = TRUE")
	}

	return strings.Join(conds, " AND "), args
}
