// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestBlogList(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "list-author@example.com", "listauthor")
	cat := fixtureCategory(t, env, "Listing", "listing-cat")
	blog := fixtureBlog(t, env, author, cat, "listing-post")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/", nil)
	env.Blog.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), blog.Title) {
		t.Error("listing does not show the fixture post")
	}
}

func TestBlogListSearchNoResults(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/?q=zzz-no-such-term-zzz", nil)
	env.Blog.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Search results") {
		t.Error("expected search heading in response")
	}
}

func TestBlogDetail(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "detail-author@example.com", "detailauthor")
	cat := fixtureCategory(t, env, "Detail", "detail-cat")
	blog := fixtureBlog(t, env, author, cat, "detail-post")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/"+blog.Slug+"/", nil)
	r = withChiURLParam(r, "slug", blog.Slug)
	env.Blog.Detail(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), blog.Title) {
		t.Error("detail page missing post title")
	}

	// The visit must be recorded.
	reloaded, err := env.BlogStore.FindBySlug(blog.Slug)
	if err != nil || reloaded == nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Views < 1 {
		t.Errorf("views = %d, want at least 1", reloaded.Views)
	}
}

func TestBlogDetailNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/does-not-exist/", nil)
	r = withChiURLParam(r, "slug", "does-not-exist")
	env.Blog.Detail(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestBlogDetailDraftPreview(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "draft-author@example.com", "draftauthor")
	other := fixtureUser(t, env, "draft-other@example.com", "draftother")
	cat := fixtureCategory(t, env, "Drafts", "drafts-cat")

	draft := fixtureBlog(t, env, author, cat, "draft-post")
	if _, err := env.DB.Exec("UPDATE blogs SET status = 'draft', published_at = NULL WHERE id = $1", draft.ID); err != nil {
		t.Fatalf("demote to draft: %v", err)
	}

	// Anonymous readers get a 404.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/"+draft.Slug+"/", nil)
	r = withChiURLParam(r, "slug", draft.Slug)
	env.Blog.Detail(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("anonymous draft view status = %d, want 404", w.Code)
	}

	// Another signed-in user gets a 404 too.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/blog/"+draft.Slug+"/", nil)
	r = withChiURLParamAndSession(r, "slug", draft.Slug, testSession(other))
	env.Blog.Detail(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("other user draft view status = %d, want 404", w.Code)
	}

	// The author can preview.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/blog/"+draft.Slug+"/", nil)
	r = withChiURLParamAndSession(r, "slug", draft.Slug, testSession(author))
	env.Blog.Detail(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("author draft preview status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), draft.Title) {
		t.Error("preview missing draft title")
	}
}

func TestBlogCategoryIndex(t *testing.T) {
	env := newTestEnv(t)
	fixtureCategory(t, env, "Tree Category", "tree-category")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/categories/", nil)
	env.Blog.CategoryIndex(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Tree Category") {
		t.Error("category index missing fixture category")
	}
}

func TestBlogCategoryDetail(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "cat-author@example.com", "catauthor")
	cat := fixtureCategory(t, env, "Scoped", "scoped-cat")
	otherCat := fixtureCategory(t, env, "Elsewhere", "elsewhere-cat")
	inCat := fixtureBlog(t, env, author, cat, "in-category-post")
	outCat := fixtureBlog(t, env, author, otherCat, "out-of-category-post")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/blog/category/"+cat.Slug+"/", nil)
	r = withChiURLParam(r, "slug", cat.Slug)
	env.Blog.CategoryDetail(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, inCat.Title) {
		t.Error("category listing missing in-category post")
	}
	if strings.Contains(body, outCat.Title) {
		t.Error("category listing leaked a post from another category")
	}
}

func TestBlogCreateAndEdit(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "create-author@example.com", "createauthor")
	cat := fixtureCategory(t, env, "Writing", "writing-cat")
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM blogs WHERE author_id = $1", author.ID)
	})

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/blog/new/", url.Values{
		"title":       {"A Brand New Post"},
		"description": {"Body text long enough to publish."},
		"category":    {cat.ID.String()},
		"tags":        {"go, testing"},
		"status":      {"published"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(author)))
	env.Blog.NewSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "/blog/a-brand-new-post") {
		t.Fatalf("redirect = %q", location)
	}
	createdSlug := strings.Trim(strings.TrimPrefix(location, "/blog/"), "/")

	created, err := env.BlogStore.FindBySlug(createdSlug)
	if err != nil || created == nil {
		t.Fatalf("created post not found: %v", err)
	}
	if len(created.Tags) != 2 {
		t.Errorf("tags = %d, want 2", len(created.Tags))
	}
	if created.Excerpt == "" {
		t.Error("excerpt was not derived from the body")
	}
	if created.PublishedAt == nil {
		t.Error("published post has no published_at")
	}

	// Edit it.
	w = httptest.NewRecorder()
	r = formRequest(http.MethodPost, "/blog/"+createdSlug+"/edit/", url.Values{
		"title":       {"A Brand New Post, Revised"},
		"description": {"Updated body text."},
		"category":    {cat.ID.String()},
		"tags":        {"go"},
		"status":      {"published"},
	})
	r = withChiURLParamAndSession(r, "slug", createdSlug, testSession(author))
	env.Blog.EditSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("edit status = %d: %s", w.Code, w.Body.String())
	}

	updated, err := env.BlogStore.FindBySlug(createdSlug)
	if err != nil || updated == nil {
		t.Fatalf("updated post not found: %v", err)
	}
	if updated.Title != "A Brand New Post, Revised" {
		t.Errorf("title = %q", updated.Title)
	}
	if len(updated.Tags) != 1 {
		t.Errorf("tags after edit = %d, want 1", len(updated.Tags))
	}
}

func TestBlogCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "invalid-author@example.com", "invalidauthor")
	fixtureCategory(t, env, "Unused", "unused-cat")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/blog/new/", url.Values{
		"title":       {""},
		"description": {"Body without a title."},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(author)))
	env.Blog.NewSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want editor re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Body without a title.") {
		t.Error("editor re-render lost the submitted body")
	}
}

func TestBlogEditForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "owner@example.com", "postowner")
	intruder := fixtureUser(t, env, "intruder@example.com", "intruder")
	cat := fixtureCategory(t, env, "Guarded", "guarded-cat")
	blog := fixtureBlog(t, env, author, cat, "guarded-post")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/blog/"+blog.Slug+"/edit/", url.Values{
		"title":       {"Hijacked"},
		"description": {"Should never land."},
		"category":    {cat.ID.String()},
	})
	r = withChiURLParamAndSession(r, "slug", blog.Slug, testSession(intruder))
	env.Blog.EditSubmit(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestBlogDelete(t *testing.T) {
	env := newTestEnv(t)
	author := fixtureUser(t, env, "delete-author@example.com", "deleteauthor")
	cat := fixtureCategory(t, env, "Doomed", "doomed-cat")
	blog := fixtureBlog(t, env, author, cat, "doomed-post")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/blog/"+blog.Slug+"/delete/", nil)
	r = withChiURLParamAndSession(r, "slug", blog.Slug, testSession(author))
	env.Blog.Delete(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/accounts/posts/" {
		t.Errorf("redirect = %q", got)
	}
	if found, _ := env.BlogStore.FindBySlug(blog.Slug); found != nil {
		t.Error("deleted post still served publicly")
	}
}

func TestPageQuery(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"page=3", ""},
		{"q=go&page=2", "q=go&"},
		{"sort=popular", "sort=popular&"},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got := pageQuery(q); got != tc.want {
			t.Errorf("pageQuery(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
