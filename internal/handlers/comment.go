package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"modernblog/internal/cache"
	"modernblog/internal/middleware"
	"modernblog/internal/models"
	"modernblog/internal/render"
	"modernblog/internal/store"
)

// maxCommentDepth caps reply nesting. Replies below the cap attach to
// their requested parent; deeper ones are clamped to depth five by
// reparenting onto the parent's ancestor at depth four.
const maxCommentDepth = 5

// Comment groups the comment handlers: posting, replying, editing, and
// deleting. New comments start in the configured default status, which
// lets an operator run an approval queue.
type Comment struct {
	commentStore  *store.CommentStore
	blogStore     *store.BlogStore
	userStore     *store.UserStore
	pageCache     *cache.PageCache
	defaultStatus models.CommentStatus
}

// NewComment creates a new Comment handler group.
func NewComment(commentStore *store.CommentStore, blogStore *store.BlogStore, userStore *store.UserStore, pageCache *cache.PageCache, defaultStatus string) *Comment {
	status := models.CommentStatusApproved
	if defaultStatus == "pending" {
		status = models.CommentStatusPending
	}
	return &Comment{
		commentStore:  commentStore,
		blogStore:     blogStore,
		userStore:     userStore,
		pageCache:     pageCache,
		defaultStatus: status,
	}
}

// Create posts a comment or reply on a published post.
func (c *Comment) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	slugParam := chi.URLParam(r, "slug")

	blog, err := c.blogStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find blog for comment failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if blog == nil {
		http.NotFound(w, r)
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if msg := validateComment(content); msg != "" {
		render.SetFlash(w, render.Flash{Type: "error", Message: msg})
		http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
		return
	}

	var parentID *uuid.UUID
	if v := r.FormValue("parent_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		parent, err := c.commentStore.FindByID(id)
		if err != nil {
			slog.Error("find parent comment failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		// Replies must stay on the same post as their parent.
		if parent == nil || parent.BlogID != blog.ID {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		clamped, err := c.clampDepth(parent)
		if err != nil {
			slog.Error("comment depth walk failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		parentID = &clamped
	}

	user, err := c.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("comment user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	_, err = c.commentStore.Create(&models.Comment{
		BlogID:   blog.ID,
		UserID:   user.ID,
		ParentID: parentID,
		Content:  content,
		Status:   c.defaultStatus,
		Name:     user.DisplayName(),
		Email:    user.Email,
	})
	if err != nil {
		slog.Error("create comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if c.defaultStatus == models.CommentStatusApproved {
		c.pageCache.InvalidateBlog(r.Context(), blog.Slug)
	}
	http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
}

// clampDepth returns the parent ID to attach a reply to, walking up the
// ancestor chain so the new comment never exceeds maxCommentDepth. Both
// walks stop after maxCommentDepth steps, so an over-deep or accidentally
// cyclic parent chain terminates instead of looping.
func (c *Comment) clampDepth(parent *models.Comment) (uuid.UUID, error) {
	// Count ancestors above the requested parent.
	depth := 1
	node := parent
	for node.ParentID != nil && depth < maxCommentDepth {
		next, err := c.commentStore.FindByID(*node.ParentID)
		if err != nil {
			return uuid.Nil, err
		}
		if next == nil {
			break
		}
		depth++
		node = next
	}

	// The reply would land at depth+1 (1-based). Walk the chain again and
	// stop at the ancestor that keeps the reply within the cap.
	if depth+1 <= maxCommentDepth {
		return parent.ID, nil
	}
	node = parent
	for steps := 0; depth+1 > maxCommentDepth && node.ParentID != nil && steps < maxCommentDepth; steps++ {
		next, err := c.commentStore.FindByID(*node.ParentID)
		if err != nil {
			return uuid.Nil, err
		}
		if next == nil {
			break
		}
		node = next
		depth--
	}
	return node.ID, nil
}

// Edit updates a comment's content. Only the comment's author may edit.
func (c *Comment) Edit(w http.ResponseWriter, r *http.Request) {
	comment, blog, ok := c.ownedComment(w, r)
	if !ok {
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if msg := validateComment(content); msg != "" {
		render.SetFlash(w, render.Flash{Type: "error", Message: msg})
		http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
		return
	}

	if err := c.commentStore.UpdateContent(comment.ID, content); err != nil {
		slog.Error("update comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.pageCache.InvalidateBlog(r.Context(), blog.Slug)
	http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
}

// Delete removes a comment and, via the FK cascade, its replies. Only
// the comment's author may delete.
func (c *Comment) Delete(w http.ResponseWriter, r *http.Request) {
	comment, blog, ok := c.ownedComment(w, r)
	if !ok {
		return
	}

	if err := c.commentStore.Delete(comment.ID); err != nil {
		slog.Error("delete comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.pageCache.InvalidateBlog(r.Context(), blog.Slug)
	http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
}

// ownedComment loads the comment in the URL, its post, and checks the
// session user wrote it. Writes the error response and returns ok=false
// otherwise.
func (c *Comment) ownedComment(w http.ResponseWriter, r *http.Request) (*models.Comment, *models.Blog, bool) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, nil, false
	}

	comment, err := c.commentStore.FindByID(id)
	if err != nil {
		slog.Error("find comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if comment == nil {
		http.NotFound(w, r)
		return nil, nil, false
	}
	if sess == nil || comment.UserID != sess.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, nil, false
	}

	blog, err := c.blogStore.FindByID(comment.BlogID)
	if err != nil || blog == nil {
		slog.Error("find blog for comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}

	return comment, blog, true
}
