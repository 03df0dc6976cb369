package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"modernblog/internal/cache"
	"modernblog/internal/middleware"
	"modernblog/internal/store"
)

// Engagement groups the like and bookmark toggle handlers. Both respond
// with an HTML button fragment for HTMX requests and JSON otherwise.
type Engagement struct {
	engagementStore *store.EngagementStore
	blogStore       *store.BlogStore
	pageCache       *cache.PageCache
}

// NewEngagement creates a new Engagement handler group.
func NewEngagement(engagementStore *store.EngagementStore, blogStore *store.BlogStore, pageCache *cache.PageCache) *Engagement {
	return &Engagement{
		engagementStore: engagementStore,
		blogStore:       blogStore,
		pageCache:       pageCache,
	}
}

// LikeToggle flips the like state for the current user on a post.
func (e *Engagement) LikeToggle(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	slugParam := chi.URLParam(r, "slug")

	blog, err := e.blogStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find blog for like failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if blog == nil {
		http.NotFound(w, r)
		return
	}

	liked, err := e.engagementStore.ToggleLike(sess.UserID, blog.ID)
	if err != nil {
		slog.Error("toggle like failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	count, err := e.engagementStore.LikeCount(blog.ID)
	if err != nil {
		slog.Error("like count failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// The cached anonymous page shows the like counter.
	e.pageCache.InvalidateBlog(r.Context(), blog.Slug)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		classes := "border-gray-300 hover:bg-gray-100"
		if liked {
			classes = "bg-red-50 border-red-200 text-red-700"
		}
		fmt.Fprintf(w,
			`<button hx-post="/blog/%s/like/" hx-swap="outerHTML" class="border rounded px-4 py-2 text-sm %s">&hearts; %d</button>`,
			blog.Slug, classes, count)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"liked":      liked,
		"like_count": count,
	})
}

// BookmarkToggle flips the bookmark state for the current user on a post.
func (e *Engagement) BookmarkToggle(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	slugParam := chi.URLParam(r, "slug")

	blog, err := e.blogStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find blog for bookmark failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if blog == nil {
		http.NotFound(w, r)
		return
	}

	bookmarked, err := e.engagementStore.ToggleBookmark(sess.UserID, blog.ID)
	if err != nil {
		slog.Error("toggle bookmark failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		classes, label := "border-gray-300 hover:bg-gray-100", "Bookmark"
		if bookmarked {
			classes, label = "bg-blue-50 border-blue-200 text-blue-700", "Bookmarked"
		}
		fmt.Fprintf(w,
			`<button hx-post="/blog/%s/bookmark/" hx-swap="outerHTML" class="border rounded px-4 py-2 text-sm %s">%s</button>`,
			blog.Slug, classes, label)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"bookmarked": bookmarked,
	})
}
