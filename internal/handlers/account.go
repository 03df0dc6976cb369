// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"modernblog/internal/imaging"
	"modernblog/internal/middleware"
	"modernblog/internal/models"
	"modernblog/internal/render"
	"modernblog/internal/session"
	"modernblog/internal/storage"
	"modernblog/internal/store"
)

// Account groups the signed-in account handlers: profile pages, settings,
// bookmarks, and deactivation.
type Account struct {
	renderer        *render.Renderer
	sessions        *session.Store
	userStore       *store.UserStore
	blogStore       *store.BlogStore
	engagementStore *store.EngagementStore
	storageClient   *storage.Client // nil when S3 is not configured
}

// NewAccount creates a new Account handler group. storageClient may be nil.
func NewAccount(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, blogStore *store.BlogStore, engagementStore *store.EngagementStore, storageClient *storage.Client) *Account {
	return &Account{
		renderer:        renderer,
		sessions:        sessions,
		userStore:       userStore,
		blogStore:       blogStore,
		engagementStore: engagementStore,
		storageClient:   storageClient,
	}
}

// currentUser loads the full user record for the session. Writes the
// error response and returns nil on failure.
func (a *Account) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return nil
	}
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("session user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	return user
}

// avatarURL resolves the avatar key to a public URL, empty when unset.
func (a *Account) avatarURL(user *models.User) string {
	if user.AvatarKey == nil || a.storageClient == nil {
		return ""
	}
	return a.storageClient.FileURL(*user.AvatarKey)
}

// ProfilePage renders the signed-in user's own profile.
func (a *Account) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	posts, err := a.blogStore.ListByAuthor(user.ID)
	if err != nil {
		slog.Warn("list own posts failed", "error", err)
	}

	a.renderer.Page(w, r, "profile", &render.PageData{
		Title: user.DisplayName(),
		Data: map[string]any{
			"User":      user,
			"Posts":     posts,
			"IsOwner":   true,
			"AvatarURL": a.avatarURL(user),
		},
	})
}

// PublicProfile renders another user's profile page by username. Private
// profiles are visible only to their owner.
func (a *Account) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByUsername(username)
	if err != nil {
		slog.Error("profile lookup failed", "error", err, "username", username)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil || !user.IsActive {
		http.NotFound(w, r)
		return
	}

	isOwner := sess != nil && sess.UserID == user.ID
	if !user.ProfilePublic && !isOwner {
		http.NotFound(w, r)
		return
	}

	// Only published work appears on a public profile.
	var posts []models.Blog
	all, err := a.blogStore.ListByAuthor(user.ID)
	if err != nil {
		slog.Warn("list author posts failed", "error", err)
	}
	for _, p := range all {
		if p.IsPublished() {
			posts = append(posts, p)
		}
	}

	a.renderer.Page(w, r, "profile", &render.PageData{
		Title: user.DisplayName(),
		Data: map[string]any{
			"User":      user,
			"Posts":     posts,
			"IsOwner":   isOwner,
			"AvatarURL": a.avatarURL(user),
		},
	})
}

// MyPosts lists the user's posts across every status, with edit and
// delete controls.
func (a *Account) MyPosts(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	posts, err := a.blogStore.ListByAuthor(user.ID)
	if err != nil {
		slog.Error("list own posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "my_posts", &render.PageData{
		Title:   "My Posts",
		Section: "write",
		Data:    map[string]any{"Blogs": posts},
	})
}

// SettingsPage renders the account settings form.
func (a *Account) SettingsPage(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}
	a.renderSettings(w, r, user, "")
}

func (a *Account) renderSettings(w http.ResponseWriter, r *http.Request, user *models.User, errMsg string) {
	gender := ""
	if user.Gender != nil {
		gender = string(*user.Gender)
	}
	birthDate := ""
	if user.BirthDate != nil {
		birthDate = user.BirthDate.Format("2006-01-02")
	}

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title: "Settings",
		Data: map[string]any{
			"User":      user,
			"Gender":    gender,
			"BirthDate": birthDate,
			"AvatarURL": a.avatarURL(user),
			"Error":     errMsg,
		},
	})
}

// SettingsSubmit applies profile changes, including the optional avatar
// upload.
func (a *Account) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	// 5 MB limit covers the avatar plus text fields.
	r.ParseMultipartForm(5 << 20)

	user.FullName = strings.TrimSpace(r.FormValue("full_name"))
	user.Bio = strings.TrimSpace(r.FormValue("bio"))
	user.Phone = strings.TrimSpace(r.FormValue("phone"))
	user.Website = strings.TrimSpace(r.FormValue("website"))
	user.X = strings.TrimSpace(r.FormValue("x"))
	user.Instagram = strings.TrimSpace(r.FormValue("instagram"))
	user.Telegram = strings.TrimSpace(r.FormValue("telegram"))
	user.GitHub = strings.TrimSpace(r.FormValue("github"))

	switch g := models.Gender(r.FormValue("gender")); g {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
		user.Gender = &g
	default:
		user.Gender = nil
	}

	user.BirthDate = nil
	if v := r.FormValue("birth_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			a.renderSettings(w, r, user, "Birth date must be in YYYY-MM-DD format.")
			return
		}
		if t.After(time.Now()) {
			a.renderSettings(w, r, user, "Birth date cannot be in the future.")
			return
		}
		user.BirthDate = &t
	}

	if err := a.userStore.UpdateProfile(user); err != nil {
		slog.Error("update profile failed", "error", err)
		a.renderSettings(w, r, user, "An unexpected error occurred.")
		return
	}

	if err := a.uploadAvatar(r, user.ID); err != nil {
		slog.Warn("avatar upload failed", "error", err, "user_id", user.ID)
		a.renderSettings(w, r, user, "Profile saved, but the avatar upload failed.")
		return
	}

	a.userStore.TouchActivity(user.ID, time.Now())
	http.Redirect(w, r, "/accounts/settings/", http.StatusSeeOther)
}

// uploadAvatar stores the optional avatar from the settings form as a
// square WebP in S3 and records its key. A missing file field is not an
// error.
func (a *Account) uploadAvatar(r *http.Request, userID uuid.UUID) error {
	if a.storageClient == nil {
		return nil
	}
	file, header, err := r.FormFile("avatar")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return err
	}

	processed, err := imaging.Avatar(buf.Bytes())
	if err != nil {
		return err
	}

	key := path.Join("avatars", userID.String()+".webp")
	ctx := r.Context()
	if err := a.storageClient.Upload(ctx, key, processed.ContentType, bytes.NewReader(processed.Data), int64(len(processed.Data))); err != nil {
		return err
	}
	return a.userStore.SetAvatarKey(userID, key)
}

// PrivacyToggle flips the public-profile flag. Responds with JSON so the
// settings checkbox can submit over HTMX without a page reload.
func (a *Account) PrivacyToggle(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	public := r.FormValue("profile_public") == "1"
	if err := a.userStore.SetProfilePublic(sess.UserID, public); err != nil {
		slog.Error("privacy toggle failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"profile_public": public,
	})
}

// EmailSubmit changes the account email after verifying the password.
func (a *Account) EmailSubmit(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if msg := validateEmail(email); msg != "" {
		a.renderSettings(w, r, user, msg)
		return
	}
	if !a.userStore.CheckPassword(user, r.FormValue("password")) {
		a.renderSettings(w, r, user, "Current password is incorrect.")
		return
	}

	if email != user.Email {
		if existing, err := a.userStore.FindByEmail(email); err != nil {
			slog.Error("email change lookup failed", "error", err)
			a.renderSettings(w, r, user, "An unexpected error occurred.")
			return
		} else if existing != nil {
			a.renderSettings(w, r, user, "An account with this email already exists.")
			return
		}

		if err := a.userStore.UpdateEmail(user.ID, email); err != nil {
			slog.Error("update email failed", "error", err)
			a.renderSettings(w, r, user, "An unexpected error occurred.")
			return
		}

		// Keep the session copy in sync.
		sess := middleware.SessionFromCtx(r.Context())
		sess.Email = email
		if err := a.sessions.Update(r.Context(), r, sess); err != nil {
			slog.Warn("session email sync failed", "error", err)
		}
	}

	http.Redirect(w, r, "/accounts/settings/", http.StatusSeeOther)
}

// PasswordSubmit changes the account password after verifying the
// current one.
func (a *Account) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	if !a.userStore.CheckPassword(user, r.FormValue("current_password")) {
		a.renderSettings(w, r, user, "Current password is incorrect.")
		return
	}
	newPassword := r.FormValue("new_password")
	if msg := validatePassword(newPassword, r.FormValue("confirm_password")); msg != "" {
		a.renderSettings(w, r, user, msg)
		return
	}

	if err := a.userStore.UpdatePassword(user.ID, newPassword); err != nil {
		slog.Error("update password failed", "error", err)
		a.renderSettings(w, r, user, "An unexpected error occurred.")
		return
	}

	slog.Info("password changed", "user_id", user.ID)
	http.Redirect(w, r, "/accounts/settings/", http.StatusSeeOther)
}

// Deactivate disables the account after a password check. The row is
// kept so authored posts survive; the author byline falls back once the
// account is removed outright.
func (a *Account) Deactivate(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	if !a.userStore.CheckPassword(user, r.FormValue("password")) {
		a.renderSettings(w, r, user, "Password is incorrect.")
		return
	}

	if err := a.userStore.Deactivate(user.ID); err != nil {
		slog.Error("deactivate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.sessions.Destroy(r.Context(), w, r)
	slog.Info("account deactivated", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ActivityPing records that the user is active. The base layout posts
// it periodically so last_activity tracks real presence, not just
// form submissions.
func (a *Account) ActivityPing(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := a.userStore.TouchActivity(sess.UserID, time.Now()); err != nil {
		slog.Error("activity ping failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Bookmarks renders the user's saved posts with their notes.
func (a *Account) Bookmarks(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}

	bookmarks, err := a.engagementStore.ListBookmarks(sess.UserID)
	if err != nil {
		slog.Error("list bookmarks failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "bookmarks", &render.PageData{
		Title:   "Bookmarks",
		Section: "bookmarks",
		Data:    map[string]any{"Bookmarks": bookmarks},
	})
}

// BookmarkNotes updates the private note on a bookmark. Responds with
// JSON for the HTMX note form.
func (a *Account) BookmarkNotes(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	blogID, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	notes := strings.TrimSpace(r.FormValue("notes"))
	if utf8.RuneCountInString(notes) > maxNotesLen {
		http.Error(w, "Note is too long", http.StatusBadRequest)
		return
	}

	ok, err := a.engagementStore.UpdateBookmarkNotes(sess.UserID, blogID, notes)
	if err != nil {
		slog.Error("update bookmark notes failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
