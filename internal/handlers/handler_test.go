// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"modernblog/internal/cache"
	"modernblog/internal/database"
	"modernblog/internal/middleware"
	"modernblog/internal/models"
	"modernblog/internal/render"
	"modernblog/internal/session"
	"modernblog/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "modernblog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "modernblog")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB              *sql.DB
	Valkey          *redis.Client
	Renderer        *render.Renderer
	Sessions        *session.Store
	UserStore       *store.UserStore
	BlogStore       *store.BlogStore
	CategoryStore   *store.CategoryStore
	TagStore        *store.TagStore
	CommentStore    *store.CommentStore
	EngagementStore *store.EngagementStore
	ContactStore    *store.ContactStore
	SiteInfoStore   *store.SiteInfoStore
	PageCache       *cache.PageCache
	Auth            *Auth
	Account         *Account
	Blog            *Blog
	Comment         *Comment
	Engagement      *Engagement
	Contact         *Contact
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	blogStore := store.NewBlogStore(db)
	categoryStore := store.NewCategoryStore(db)
	tagStore := store.NewTagStore(db)
	commentStore := store.NewCommentStore(db)
	engagementStore := store.NewEngagementStore(db)
	contactStore := store.NewContactStore(db)
	siteInfoStore := store.NewSiteInfoStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)

	return &testEnv{
		DB:              db,
		Valkey:          vk,
		Renderer:        renderer,
		Sessions:        sessions,
		UserStore:       userStore,
		BlogStore:       blogStore,
		CategoryStore:   categoryStore,
		TagStore:        tagStore,
		CommentStore:    commentStore,
		EngagementStore: engagementStore,
		ContactStore:    contactStore,
		SiteInfoStore:   siteInfoStore,
		PageCache:       pageCache,
		Auth:            NewAuth(renderer, sessions, userStore),
		Account:         NewAccount(renderer, sessions, userStore, blogStore, engagementStore, nil),
		Blog:            NewBlog(renderer, blogStore, categoryStore, tagStore, commentStore, engagementStore, pageCache, nil),
		Comment:         NewComment(commentStore, blogStore, userStore, pageCache, "approved"),
		Engagement:      NewEngagement(engagementStore, blogStore, pageCache),
		Contact:         NewContact(renderer, contactStore, siteInfoStore),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for a user record.
func testSession(user *models.User) *session.Data {
	return &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		TwoFADone: true,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// fixtureUser creates a user for handler tests and removes it afterwards.
func fixtureUser(t *testing.T, env *testEnv, email, username string) *models.User {
	t.Helper()
	user, err := env.UserStore.Create(email, "password123", username, "")
	if err != nil {
		t.Fatalf("fixture user: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID) })
	return user
}

// fixtureCategory creates a category for handler tests and removes it
// afterwards.
func fixtureCategory(t *testing.T, env *testEnv, title, slug string) *models.Category {
	t.Helper()
	c, err := env.CategoryStore.Create(&models.Category{Title: title, Slug: slug, IsActive: true})
	if err != nil {
		t.Fatalf("fixture category: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	return c
}

// fixtureBlog creates a published post for handler tests and removes it
// afterwards.
func fixtureBlog(t *testing.T, env *testEnv, author *models.User, category *models.Category, slug string) *models.Blog {
	t.Helper()
	b, err := env.BlogStore.Create(&models.Blog{
		CategoryID:  category.ID,
		AuthorID:    &author.ID,
		Title:       "Fixture " + slug,
		Slug:        slug,
		Description: "A fixture post body with enough words to read.",
		Status:      models.BlogStatusPublished,
		ReadingTime: 1,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("fixture blog: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM blogs WHERE id = $1", b.ID) })
	return b
}
