// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"modernblog/internal/cache"
	"modernblog/internal/imaging"
	"modernblog/internal/middleware"
	"modernblog/internal/models"
	"modernblog/internal/render"
	"modernblog/internal/slug"
	"modernblog/internal/storage"
	"modernblog/internal/store"
)

// Blog groups the public blog handlers: listings, post pages, categories,
// tags, and the author-facing post editor. Public GET pages for anonymous
// visitors are served through the Valkey full-page cache.
type Blog struct {
	renderer        *render.Renderer
	blogStore       *store.BlogStore
	categoryStore   *store.CategoryStore
	tagStore        *store.TagStore
	commentStore    *store.CommentStore
	engagementStore *store.EngagementStore
	pageCache       *cache.PageCache
	storageClient   *storage.Client // nil when S3 is not configured
}

// NewBlog creates a new Blog handler group. storageClient may be nil.
func NewBlog(renderer *render.Renderer, blogStore *store.BlogStore, categoryStore *store.CategoryStore, tagStore *store.TagStore, commentStore *store.CommentStore, engagementStore *store.EngagementStore, pageCache *cache.PageCache, storageClient *storage.Client) *Blog {
	return &Blog{
		renderer:        renderer,
		blogStore:       blogStore,
		categoryStore:   categoryStore,
		tagStore:        tagStore,
		commentStore:    commentStore,
		engagementStore: engagementStore,
		pageCache:       pageCache,
		storageClient:   storageClient,
	}
}

// cacheable reports whether the response for this request may be served
// from and stored in the page cache. Only anonymous full-page GETs
// qualify: signed-in pages carry per-user navigation and forms.
func cacheable(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if middleware.SessionFromCtx(r.Context()) != nil {
		return false
	}
	return r.Header.Get("HX-Request") != "true"
}

// captureWriter tees the response body so a successful render can be
// stored in the page cache afterwards.
type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (cw *captureWriter) WriteHeader(status int) {
	cw.status = status
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// List renders the blog index with search, facet filters, sorting, and
// pagination. Mounted on both / and /blog/.
func (b *Blog) List(w http.ResponseWriter, r *http.Request) {
	f := store.ParseBlogFilter(r.URL.Query())
	heading := "Latest Posts"
	if f.Search != "" {
		heading = fmt.Sprintf("Search results for %q", f.Search)
	}
	b.renderList(w, r, f, heading, "blog")
}

// CategoryIndex renders the category tree with post and view counters.
func (b *Blog) CategoryIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.ListKey("categories")
	if cacheable(r) {
		if cached, ok := b.pageCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	flat, err := b.categoryStore.ListActive()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	tree := store.BuildCategoryTree(flat)

	cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
	b.renderer.Page(cw, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": tree},
	})
	if cacheable(r) && cw.status == http.StatusOK {
		b.pageCache.Set(ctx, key, cw.buf.Bytes())
	}
}

// CategoryDetail renders the post listing scoped to one category.
func (b *Blog) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	category, err := b.categoryStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find category failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.NotFound(w, r)
		return
	}

	f := store.ParseBlogFilter(r.URL.Query())
	f.CategorySlug = category.Slug
	b.renderList(w, r, f, category.Title, "categories")
}

// TagDetail renders the post listing scoped to one tag.
func (b *Blog) TagDetail(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	tag, err := b.tagStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find tag failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tag == nil {
		http.NotFound(w, r)
		return
	}

	f := store.ParseBlogFilter(r.URL.Query())
	f.TagSlug = tag.Slug
	b.renderList(w, r, f, "#"+tag.Name, "blog")
}

// renderList executes the shared listing pipeline: query, pagination
// math, sidebar data, and the optional page cache for anonymous readers.
func (b *Blog) renderList(w http.ResponseWriter, r *http.Request, f store.BlogFilter, heading, section string) {
	ctx := r.Context()
	key := cache.ListKey(r.URL.Path + "?" + r.URL.RawQuery)
	if cacheable(r) {
		if cached, ok := b.pageCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	blogs, total, err := b.blogStore.List(f)
	if err != nil {
		slog.Error("list blogs failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	totalPages := (total + f.PerPage - 1) / f.PerPage
	if totalPages < 1 {
		totalPages = 1
	}

	featured, err := b.blogStore.ListFeatured(5)
	if err != nil {
		slog.Warn("list featured failed", "error", err)
	}
	popularTags, err := b.tagStore.ListPopular(20)
	if err != nil {
		slog.Warn("list popular tags failed", "error", err)
	}

	cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
	b.renderer.Page(cw, r, "blog_list", &render.PageData{
		Title:   heading,
		Section: section,
		Data: map[string]any{
			"Heading":     heading,
			"Blogs":       blogs,
			"Total":       total,
			"Page":        f.Page,
			"TotalPages":  totalPages,
			"Query":       f.Search,
			"Sort":        f.Sort,
			"PageQuery":   pageQuery(r.URL.Query()),
			"Featured":    featured,
			"PopularTags": popularTags,
		},
	})
	if cacheable(r) && cw.status == http.StatusOK {
		b.pageCache.Set(ctx, key, cw.buf.Bytes())
	}
}

// pageQuery re-encodes the current query string without the page
// parameter, for building previous/next links.
func pageQuery(q url.Values) string {
	q.Del("page")
	if len(q) == 0 {
		return ""
	}
	return q.Encode() + "&"
}

// Detail renders a single post page: body, tags, engagement state, the
// approved comment tree, and related posts. Every hit counts as a view,
// including cache hits.
func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")
	sess := middleware.SessionFromCtx(ctx)

	if cacheable(r) {
		if cached, ok := b.pageCache.Get(ctx, cache.BlogKey(slugParam)); ok {
			// The cached page shows a slightly stale counter; the view
			// itself is still recorded.
			if blog, err := b.blogStore.FindBySlug(slugParam); err == nil && blog != nil {
				b.blogStore.IncrementViews(blog.ID)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	blog, err := b.blogStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find blog failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Authors can preview their own drafts and archived posts.
	preview := false
	if blog == nil && sess != nil {
		hidden, err := b.blogStore.FindBySlugAny(slugParam)
		if err != nil {
			slog.Error("find blog any failed", "error", err, "slug", slugParam)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if hidden != nil && hidden.AuthorID != nil && *hidden.AuthorID == sess.UserID {
			blog = hidden
			preview = true
		}
	}
	if blog == nil {
		http.NotFound(w, r)
		return
	}

	if !preview {
		if err := b.blogStore.IncrementViews(blog.ID); err != nil {
			slog.Warn("increment views failed", "error", err, "slug", slugParam)
		}
		blog.Views++
	}

	comments, err := b.commentStore.ListApprovedTree(blog.ID)
	if err != nil {
		slog.Error("list comments failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	commentCount, err := b.commentStore.CountApproved(blog.ID)
	if err != nil {
		slog.Warn("count comments failed", "error", err)
	}

	related, err := b.blogStore.ListRelated(blog, 4)
	if err != nil {
		slog.Warn("list related failed", "error", err)
	}

	var liked, bookmarked bool
	if sess != nil {
		liked, _ = b.engagementStore.IsLiked(sess.UserID, blog.ID)
		bookmarked, _ = b.engagementStore.IsBookmarked(sess.UserID, blog.ID)
	}

	data := map[string]any{
		"Blog":            blog,
		"Comments":        comments,
		"CommentCount":    commentCount,
		"Related":         related,
		"Liked":           liked,
		"Bookmarked":      bookmarked,
		"IsAuthor":        sess != nil && blog.AuthorID != nil && *blog.AuthorID == sess.UserID,
		"ImageURL":        b.imageURL(blog),
		"MetaDescription": blog.MetaDescription,
		"MetaKeywords":    blog.MetaKeywords,
	}

	cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
	b.renderer.Page(cw, r, "blog_detail", &render.PageData{
		Title:   blog.Title,
		Section: "blog",
		Data:    data,
	})
	if cacheable(r) && !preview && cw.status == http.StatusOK {
		b.pageCache.Set(ctx, cache.BlogKey(slugParam), cw.buf.Bytes())
	}
}

// imageURL resolves the post cover image key to a public URL.
func (b *Blog) imageURL(blog *models.Blog) string {
	if blog.ImageKey == nil || b.storageClient == nil {
		return ""
	}
	return b.storageClient.FileURL(*blog.ImageKey)
}

// NewPage renders the empty post editor.
func (b *Blog) NewPage(w http.ResponseWriter, r *http.Request) {
	b.renderEditor(w, r, nil, "")
}

// NewSubmit creates a post from the editor form.
func (b *Blog) NewSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	form, errMsg := b.parsePostForm(r)
	if errMsg != "" {
		b.renderEditorError(w, r, nil, form, errMsg)
		return
	}

	postSlug, err := slug.Unique(slug.Generate(form.title), b.blogStore.SlugExists)
	if err != nil {
		slog.Error("slug generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	blog := &models.Blog{
		CategoryID:      form.categoryID,
		AuthorID:        &sess.UserID,
		Title:           form.title,
		Slug:            postSlug,
		Description:     form.body,
		Excerpt:         form.excerpt,
		Status:          form.status,
		MetaDescription: form.metaDesc,
		MetaKeywords:    form.metaKw,
		IsActive:        true,
	}
	blog.ReadingTime = blog.CalculateReadingTime()
	if blog.Excerpt == "" {
		blog.Excerpt = blog.GetExcerpt()
	}

	created, err := b.blogStore.Create(blog)
	if err != nil {
		slog.Error("create blog failed", "error", err)
		b.renderEditorError(w, r, nil, form, "An unexpected error occurred.")
		return
	}

	if len(form.tags) > 0 {
		if err := b.tagStore.SetBlogTags(created.ID, form.tags, slug.Generate); err != nil {
			slog.Error("set blog tags failed", "error", err, "blog_id", created.ID)
		}
	}

	if err := b.uploadCover(r, created.ID); err != nil {
		slog.Warn("cover upload failed", "error", err, "blog_id", created.ID)
	}

	b.pageCache.InvalidateLists(r.Context())
	slog.Info("post created", "slug", created.Slug, "status", created.Status)
	http.Redirect(w, r, "/blog/"+created.Slug+"/", http.StatusSeeOther)
}

// EditPage renders the editor prefilled with an existing post. Only the
// author may edit.
func (b *Blog) EditPage(w http.ResponseWriter, r *http.Request) {
	blog, ok := b.ownedPost(w, r)
	if !ok {
		return
	}

	var names []string
	for _, t := range blog.Tags {
		names = append(names, t.Name)
	}
	b.renderEditor(w, r, blog, strings.Join(names, ", "))
}

// EditSubmit applies editor changes to an existing post.
func (b *Blog) EditSubmit(w http.ResponseWriter, r *http.Request) {
	blog, ok := b.ownedPost(w, r)
	if !ok {
		return
	}

	form, errMsg := b.parsePostForm(r)
	if errMsg != "" {
		b.renderEditorError(w, r, blog, form, errMsg)
		return
	}

	blog.CategoryID = form.categoryID
	blog.Title = form.title
	blog.Description = form.body
	blog.Excerpt = form.excerpt
	blog.Status = form.status
	blog.MetaDescription = form.metaDesc
	blog.MetaKeywords = form.metaKw
	blog.ReadingTime = blog.CalculateReadingTime()
	if blog.Excerpt == "" {
		blog.Excerpt = blog.GetExcerpt()
	}

	if err := b.blogStore.Update(blog); err != nil {
		slog.Error("update blog failed", "error", err, "slug", blog.Slug)
		b.renderEditorError(w, r, blog, form, "An unexpected error occurred.")
		return
	}

	if err := b.tagStore.SetBlogTags(blog.ID, form.tags, slug.Generate); err != nil {
		slog.Error("set blog tags failed", "error", err, "blog_id", blog.ID)
	}

	if err := b.uploadCover(r, blog.ID); err != nil {
		slog.Warn("cover upload failed", "error", err, "blog_id", blog.ID)
	}

	b.pageCache.InvalidateBlog(r.Context(), blog.Slug)
	b.pageCache.InvalidateLists(r.Context())
	http.Redirect(w, r, "/blog/"+blog.Slug+"/", http.StatusSeeOther)
}

// Delete soft-deletes a post. Only the author may delete.
func (b *Blog) Delete(w http.ResponseWriter, r *http.Request) {
	blog, ok := b.ownedPost(w, r)
	if !ok {
		return
	}

	if err := b.blogStore.SoftDelete(blog.ID); err != nil {
		slog.Error("delete blog failed", "error", err, "slug", blog.Slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Dropped posts no longer count toward tag usage.
	for _, t := range blog.Tags {
		if err := b.tagStore.RecomputeUsage(t.ID); err != nil {
			slog.Warn("recompute tag usage failed", "error", err, "tag", t.Slug)
		}
	}

	b.pageCache.InvalidateBlog(r.Context(), blog.Slug)
	b.pageCache.InvalidateLists(r.Context())
	slog.Info("post deleted", "slug", blog.Slug)
	http.Redirect(w, r, "/accounts/posts/", http.StatusSeeOther)
}

// ownedPost loads the post in the URL and checks the session user is its
// author. Writes the error response and returns ok=false otherwise.
func (b *Blog) ownedPost(w http.ResponseWriter, r *http.Request) (*models.Blog, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	slugParam := chi.URLParam(r, "slug")

	blog, err := b.blogStore.FindBySlugAny(slugParam)
	if err != nil {
		slog.Error("find blog failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if blog == nil {
		http.NotFound(w, r)
		return nil, false
	}
	if sess == nil || blog.AuthorID == nil || *blog.AuthorID != sess.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return blog, true
}

// postForm carries parsed and validated editor fields.
type postForm struct {
	title      string
	body       string
	excerpt    string
	metaDesc   string
	metaKw     string
	status     models.BlogStatus
	categoryID uuid.UUID
	tags       []string
}

// parsePostForm reads and validates the editor form. Returns a non-empty
// message on validation failure.
func (b *Blog) parsePostForm(r *http.Request) (postForm, string) {
	// 10 MB limit covers the cover image plus text fields.
	r.ParseMultipartForm(10 << 20)

	form := postForm{
		title:    strings.TrimSpace(r.FormValue("title")),
		body:     r.FormValue("description"),
		excerpt:  strings.TrimSpace(r.FormValue("excerpt")),
		metaDesc: strings.TrimSpace(r.FormValue("meta_description")),
		metaKw:   strings.TrimSpace(r.FormValue("meta_keywords")),
	}

	if msg := validatePost(form.title, form.body); msg != "" {
		return form, msg
	}
	if msg := validatePostMetadata(form.excerpt, form.metaDesc, form.metaKw); msg != "" {
		return form, msg
	}

	switch r.FormValue("status") {
	case "published":
		form.status = models.BlogStatusPublished
	case "archived":
		form.status = models.BlogStatusArchived
	default:
		form.status = models.BlogStatusDraft
	}

	categoryID, err := uuid.Parse(r.FormValue("category"))
	if err != nil {
		return form, "Please choose a category."
	}
	category, err := b.categoryStore.FindByID(categoryID)
	if err != nil || category == nil {
		return form, "Please choose a category."
	}
	form.categoryID = categoryID

	for _, name := range strings.Split(r.FormValue("tags"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			form.tags = append(form.tags, name)
		}
	}

	return form, ""
}

// renderEditor shows the editor form, prefilled when blog is non-nil.
func (b *Blog) renderEditor(w http.ResponseWriter, r *http.Request, blog *models.Blog, tagInput string) {
	flat, err := b.categoryStore.ListActive()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := "New Post"
	if blog != nil {
		title = "Edit Post"
	}
	b.renderer.Page(w, r, "blog_form", &render.PageData{
		Title:   title,
		Section: "write",
		Data: map[string]any{
			"Blog":       blog,
			"Categories": flattenTree(store.BuildCategoryTree(flat)),
			"TagInput":   tagInput,
		},
	})
}

// renderEditorError re-renders the editor with the submitted values and
// a validation message.
func (b *Blog) renderEditorError(w http.ResponseWriter, r *http.Request, blog *models.Blog, form postForm, msg string) {
	flat, err := b.categoryStore.ListActive()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Carry the submission back into the form, preserving identity fields
	// of the post being edited.
	draft := &models.Blog{
		Title:           form.title,
		Description:     form.body,
		Excerpt:         form.excerpt,
		MetaDescription: form.metaDesc,
		MetaKeywords:    form.metaKw,
		Status:          form.status,
		CategoryID:      form.categoryID,
	}
	if blog != nil {
		draft.ID = blog.ID
		draft.Slug = blog.Slug
	}

	title := "New Post"
	if blog != nil {
		title = "Edit Post"
	}
	b.renderer.Page(w, r, "blog_form", &render.PageData{
		Title:   title,
		Section: "write",
		Data: map[string]any{
			"Blog":       draft,
			"Categories": flattenTree(store.BuildCategoryTree(flat)),
			"TagInput":   strings.Join(form.tags, ", "),
			"Error":      msg,
		},
	})
}

// flattenTree converts a category tree into depth-first order with Depth
// set, for indented <select> options.
func flattenTree(tree []models.Category) []models.Category {
	var out []models.Category
	var walk func(nodes []models.Category)
	walk = func(nodes []models.Category) {
		for _, n := range nodes {
			children := n.Children
			n.Children = nil
			out = append(out, n)
			walk(children)
		}
	}
	walk(tree)
	return out
}

// uploadCover stores the optional cover image from the editor form in S3
// as a web-optimised WebP and records its key on the post. A missing file
// field is not an error.
func (b *Blog) uploadCover(r *http.Request, blogID uuid.UUID) error {
	if b.storageClient == nil {
		return nil
	}
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return fmt.Errorf("unsupported cover type %q", header.Header.Get("Content-Type"))
	}

	data := make([]byte, 0, header.Size)
	buf := bytes.NewBuffer(data)
	if _, err := buf.ReadFrom(file); err != nil {
		return err
	}

	processed, err := imaging.CoverImage(buf.Bytes())
	if err != nil {
		return err
	}

	key := path.Join("covers", blogID.String()+".webp")
	ctx := r.Context()
	if err := b.storageClient.Upload(ctx, key, processed.ContentType, bytes.NewReader(processed.Data), int64(len(processed.Data))); err != nil {
		return err
	}
	return b.blogStore.SetImageKey(blogID, key)
}
