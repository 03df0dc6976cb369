// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestSettingsSubmitUpdatesProfile(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "settings@example.com", "settingsuser")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/", url.Values{
		"full_name":  {"Updated Name"},
		"bio":        {"Writes about Go."},
		"website":    {"https://example.com"},
		"github":     {"settingsuser"},
		"gender":     {"female"},
		"birth_date": {"1990-06-15"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.SettingsSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	updated, err := env.UserStore.FindByID(user.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload user: %v", err)
	}
	if updated.FullName != "Updated Name" {
		t.Errorf("full name = %q", updated.FullName)
	}
	if updated.Bio != "Writes about Go." {
		t.Errorf("bio = %q", updated.Bio)
	}
	if updated.Gender == nil || string(*updated.Gender) != "female" {
		t.Errorf("gender = %v", updated.Gender)
	}
	if updated.BirthDate == nil || updated.BirthDate.Format("2006-01-02") != "1990-06-15" {
		t.Errorf("birth date = %v", updated.BirthDate)
	}
	if updated.LastActivity == nil {
		t.Error("last activity was not touched")
	}
}

func TestSettingsSubmitRejectsFutureBirthDate(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "future@example.com", "futureuser")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/", url.Values{
		"full_name":  {"Time Traveller"},
		"birth_date": {"2999-01-01"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.SettingsSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want form re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), "future") {
		t.Error("expected future birth date message")
	}
}

func TestPrivacyToggle(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "privacy@example.com", "privacyuser")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/privacy/", url.Values{
		"profile_public": {"1"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.PrivacyToggle(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Success       bool `json:"success"`
		ProfilePublic bool `json:"profile_public"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !resp.ProfilePublic {
		t.Errorf("got %+v", resp)
	}

	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || !updated.ProfilePublic {
		t.Error("profile_public not persisted")
	}
}

func TestPublicProfileVisibility(t *testing.T) {
	env := newTestEnv(t)
	owner := fixtureUser(t, env, "private-profile@example.com", "privateprofile")
	visitor := fixtureUser(t, env, "profile-visitor@example.com", "profilevisitor")
	if err := env.UserStore.SetProfilePublic(owner.ID, false); err != nil {
		t.Fatalf("set private: %v", err)
	}

	// Private profiles 404 for strangers.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/accounts/u/"+owner.Username+"/", nil)
	r = withChiURLParamAndSession(r, "username", owner.Username, testSession(visitor))
	env.Account.PublicProfile(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("stranger view of private profile = %d, want 404", w.Code)
	}

	// The owner still sees it.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/accounts/u/"+owner.Username+"/", nil)
	r = withChiURLParamAndSession(r, "username", owner.Username, testSession(owner))
	env.Account.PublicProfile(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("owner view of private profile = %d, want 200", w.Code)
	}

	// Public profiles are open to everyone.
	if err := env.UserStore.SetProfilePublic(owner.ID, true); err != nil {
		t.Fatalf("set public: %v", err)
	}
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/accounts/u/"+owner.Username+"/", nil)
	r = withChiURLParam(r, "username", owner.Username)
	env.Account.PublicProfile(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("anonymous view of public profile = %d, want 200", w.Code)
	}
}

func TestEmailChange(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "old-email@example.com", "emailchanger")

	sess := testSession(user)
	w := httptest.NewRecorder()
	if _, err := env.Sessions.Create(t.Context(), w, sess); err != nil {
		t.Fatalf("session create: %v", err)
	}
	cookie := w.Result().Cookies()[0]

	w = httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/email/", url.Values{
		"email":    {"new-email@example.com"},
		"password": {"password123"},
	})
	r.AddCookie(cookie)
	r = r.WithContext(ctxWithSession(r.Context(), sess))
	env.Account.EmailSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || updated.Email != "new-email@example.com" {
		t.Errorf("email not updated: %+v", updated)
	}
	if sess.Email != "new-email@example.com" {
		t.Error("session email not synced")
	}
}

func TestEmailChangeWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "keep-email@example.com", "emailkeeper")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/email/", url.Values{
		"email":    {"stolen@example.com"},
		"password": {"wrong"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.EmailSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want form re-render", w.Code)
	}
	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || updated.Email != user.Email {
		t.Error("email changed despite wrong password")
	}
}

func TestPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "pw-change@example.com", "pwchanger")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/settings/password/", url.Values{
		"current_password": {"password123"},
		"new_password":     {"newpassword456"},
		"confirm_password": {"newpassword456"},
	})
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.PasswordSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || !env.UserStore.CheckPassword(updated, "newpassword456") {
		t.Error("new password does not verify")
	}
	if env.UserStore.CheckPassword(updated, "password123") {
		t.Error("old password still verifies")
	}
}

func TestDeactivate(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "bye@example.com", "byeuser")

	sess := testSession(user)
	w := httptest.NewRecorder()
	if _, err := env.Sessions.Create(t.Context(), w, sess); err != nil {
		t.Fatalf("session create: %v", err)
	}
	cookie := w.Result().Cookies()[0]

	w = httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/deactivate/", url.Values{
		"password": {"password123"},
	})
	r.AddCookie(cookie)
	r = r.WithContext(ctxWithSession(r.Context(), sess))
	env.Account.Deactivate(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}

	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || updated.IsActive {
		t.Error("account still active")
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	if data, _ := env.Sessions.Get(t.Context(), r); data != nil {
		t.Error("session survived deactivation")
	}
}

func TestActivityPing(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "ping@example.com", "pinguser")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/accounts/activity/", nil)
	r = r.WithContext(ctxWithSession(r.Context(), testSession(user)))
	env.Account.ActivityPing(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	updated, _ := env.UserStore.FindByID(user.ID)
	if updated == nil || updated.LastActivity == nil {
		t.Error("last_activity not recorded")
	}
}

func TestBookmarkNotes(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "notes@example.com", "notesuser")
	cat := fixtureCategory(t, env, "Noted", "noted-cat")
	blog := fixtureBlog(t, env, user, cat, "noted-post")

	if _, err := env.EngagementStore.ToggleBookmark(user.ID, blog.ID); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/bookmarks/"+blog.ID.String()+"/notes/", url.Values{
		"notes": {"Re-read the second half."},
	})
	r = withChiURLParamAndSession(r, "blogID", blog.ID.String(), testSession(user))
	env.Account.BookmarkNotes(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	bookmarks, err := env.EngagementStore.ListBookmarks(user.ID)
	if err != nil || len(bookmarks) == 0 {
		t.Fatalf("list bookmarks: %v", err)
	}
	if bookmarks[0].Notes != "Re-read the second half." {
		t.Errorf("notes = %q", bookmarks[0].Notes)
	}
}

func TestBookmarkNotesUnknownBookmark(t *testing.T) {
	env := newTestEnv(t)
	user := fixtureUser(t, env, "no-bookmark@example.com", "nobookmark")
	cat := fixtureCategory(t, env, "Unnoted", "unnoted-cat")
	blog := fixtureBlog(t, env, user, cat, "unnoted-post")

	w := httptest.NewRecorder()
	r := formRequest(http.MethodPost, "/accounts/bookmarks/"+blog.ID.String()+"/notes/", url.Values{
		"notes": {"No bookmark exists."},
	})
	r = withChiURLParamAndSession(r, "blogID", blog.ID.String(), testSession(user))
	env.Account.BookmarkNotes(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
