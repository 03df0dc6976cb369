// Package router sets up all HTTP routes and middleware chains for the
// blog platform. Public pages, the account area, and the author tools
// each get their own middleware stack.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"modernblog/internal/handlers"
	"modernblog/internal/middleware"
	"modernblog/internal/session"
	"modernblog/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. secure controls the Secure flag on the CSRF
// cookie and should be true behind TLS.
func New(
	sessionStore *session.Store,
	secure bool,
	auth *handlers.Auth,
	account *handlers.Account,
	blog *handlers.Blog,
	comment *handlers.Comment,
	engagement *handlers.Engagement,
	contact *handlers.Contact,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Brute-force protection on credential and contact endpoints. The
	// limiters run for the life of the process.
	authLimit := middleware.NewRateLimiter(10, time.Minute)
	contactLimit := middleware.NewRateLimiter(5, time.Minute)

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Compiled CSS and vendored JS, embedded at build time.
	staticFS, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// The newsletter form sits in the footer of every page, including
	// cached anonymous ones that carry no CSRF token. It is mounted
	// outside the CSRF group and rate-limited instead.
	r.With(contactLimit.Middleware).Post("/contact/newsletter/", contact.NewsletterSubscribe)
	r.With(contactLimit.Middleware).Post("/contact/newsletter/unsubscribe/", contact.NewsletterUnsubscribe)

	// Everything else is CSRF-protected.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))

		// Blog index doubles as the homepage.
		r.Get("/", blog.List)

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", blog.List)
			r.Get("/categories/", blog.CategoryIndex)
			r.Get("/category/{slug}/", blog.CategoryDetail)
			r.Get("/tag/{slug}/", blog.TagDetail)

			// Author tools and per-post actions need a verified session.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)
				r.Get("/new/", blog.NewPage)
				r.Post("/new/", blog.NewSubmit)
				r.Get("/{slug}/edit/", blog.EditPage)
				r.Post("/{slug}/edit/", blog.EditSubmit)
				r.Post("/{slug}/delete/", blog.Delete)
				r.Post("/{slug}/like/", engagement.LikeToggle)
				r.Post("/{slug}/bookmark/", engagement.BookmarkToggle)
				r.Post("/{slug}/comments/", comment.Create)
			})

			r.Get("/{slug}/", blog.Detail)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Post("/{id}/edit/", comment.Edit)
			r.Post("/{id}/delete/", comment.Delete)
		})

		r.Route("/accounts", func(r chi.Router) {
			// Credential endpoints — open, but rate-limited.
			r.Group(func(r chi.Router) {
				r.Use(authLimit.Middleware)
				r.Get("/register/", auth.RegisterPage)
				r.Post("/register/", auth.RegisterSubmit)
				r.Get("/login/", auth.LoginPage)
				r.Post("/login/", auth.LoginSubmit)
			})

			r.Post("/logout/", auth.Logout)
			r.Get("/u/{username}/", account.PublicProfile)

			// The TOTP challenge needs a session but, by definition, not a
			// completed one.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/2fa/verify/", auth.TwoFAVerifyPage)
				r.With(authLimit.Middleware).Post("/2fa/verify/", auth.TwoFAVerifySubmit)
			})

			// Everything below requires a fully verified session.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)

				r.Get("/profile/", account.ProfilePage)
				r.Get("/posts/", account.MyPosts)

				r.Get("/settings/", account.SettingsPage)
				r.Post("/settings/", account.SettingsSubmit)
				r.Post("/settings/privacy/", account.PrivacyToggle)
				r.Post("/settings/email/", account.EmailSubmit)
				r.Post("/settings/password/", account.PasswordSubmit)

				r.Get("/2fa/setup/", auth.TwoFASetupPage)
				r.Post("/2fa/setup/", auth.TwoFASetupSubmit)
				r.Post("/2fa/disable/", auth.TwoFADisable)
				r.Post("/deactivate/", account.Deactivate)
				r.Post("/activity/", account.ActivityPing)

				r.Get("/bookmarks/", account.Bookmarks)
				r.Post("/bookmarks/{blogID}/notes/", account.BookmarkNotes)
			})
		})

		r.Get("/contact/", contact.Page)
		r.With(contactLimit.Middleware).Post("/contact/", contact.Submit)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
