package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"modernblog/internal/middleware"
	"modernblog/internal/render"
	"modernblog/internal/session"
	"modernblog/internal/store"
)

// Auth groups all authentication-related HTTP handlers: registration,
// login with optional remember-me, logout, and opt-in TOTP two-factor.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
	}
}

// RegisterPage renders the registration form.
func (a *Auth) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "register", &render.PageData{
		Title: "Create Account",
	})
}

// RegisterSubmit processes the registration form. On success the user is
// signed in immediately; 2FA is opt-in and configured later from settings.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	fail := func(msg string) {
		a.renderer.Page(w, r, "register", &render.PageData{
			Title: "Create Account",
			Data: map[string]any{
				"Error":    msg,
				"Username": username,
				"Email":    email,
				"FullName": fullName,
			},
		})
	}

	if msg := validateUsername(username); msg != "" {
		fail(msg)
		return
	}
	if msg := validateEmail(email); msg != "" {
		fail(msg)
		return
	}
	if msg := validatePassword(password, confirm); msg != "" {
		fail(msg)
		return
	}

	// Reject duplicates with a field-specific message before hitting the
	// unique constraints.
	if existing, err := a.userStore.FindByEmail(email); err != nil {
		slog.Error("register email lookup failed", "error", err)
		fail("An unexpected error occurred.")
		return
	} else if existing != nil {
		fail("An account with this email already exists.")
		return
	}
	if existing, err := a.userStore.FindByUsername(username); err != nil {
		slog.Error("register username lookup failed", "error", err)
		fail("An unexpected error occurred.")
		return
	} else if existing != nil {
		fail("This username is taken.")
		return
	}

	user, err := a.userStore.Create(email, password, username, fullName)
	if err != nil {
		slog.Error("register create failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		TwoFADone: true, // no 2FA enrolled yet
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user registered", "username", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in with 2FA complete, go home.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{"Next": r.URL.Query().Get("next")},
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")
	remember := r.FormValue("remember_me") == "1"
	next := safeNextURL(r.FormValue("next"))

	fail := func(msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": msg, "Next": next},
		})
	}

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		fail("Invalid email or password.")
		return
	}
	if !user.IsActive {
		fail("This account has been deactivated.")
		return
	}

	// 2FA is opt-in: accounts without TOTP complete the login here, enrolled
	// accounts must still pass code verification.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		TwoFADone: !user.TOTPEnabled,
		Remember:  remember,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPEnabled {
		http.Redirect(w, r, "/accounts/2fa/verify/", http.StatusSeeOther)
		return
	}
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout destroys the session and redirects to the homepage.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
// Reached from account settings by users who want to enable 2FA.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "ModernBlog",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Save the secret; it stays pending until the first code verifies.
	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
		},
	})
}

// TwoFASetupSubmit validates the first TOTP code and enables 2FA.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/accounts/2fa/setup/", http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		// Re-render the setup page with the existing secret so the user can
		// retry against the same QR code.
		qrPNG, _ := qrcode.Encode(
			fmt.Sprintf("otpauth://totp/ModernBlog:%s?secret=%s&issuer=ModernBlog", user.Email, *user.TOTPSecret),
			qrcode.Medium, 256,
		)
		a.renderer.Page(w, r, "2fa_setup", &render.PageData{
			Title: "Set Up Two-Factor Authentication",
			Data: map[string]any{
				"Error":  "Invalid code. Please try again.",
				"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
				"Secret": *user.TOTPSecret,
			},
		})
		return
	}

	if err := a.userStore.EnableTOTP(user.ID); err != nil {
		slog.Error("enable totp failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("2fa enabled", "user_id", user.ID)
	http.Redirect(w, r, "/accounts/settings/", http.StatusSeeOther)
}

// TwoFAVerifyPage renders the 2FA code entry form shown after login for
// accounts with 2FA enabled.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}
	if sess.TwoFADone {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPSecret == nil || !user.TOTPEnabled {
		// 2FA was disabled between login and verification.
		sess.TwoFADone = true
		a.sessions.Update(r.Context(), r, sess)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": "Invalid code. Please try again."},
		})
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFADisable removes the TOTP enrollment for the current user.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/accounts/login/", http.StatusSeeOther)
		return
	}

	if err := a.userStore.ResetTOTP(sess.UserID); err != nil {
		slog.Error("reset totp failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("2fa disabled", "user_id", sess.UserID)
	http.Redirect(w, r, "/accounts/settings/", http.StatusSeeOther)
}

// safeNextURL accepts only local paths for the post-login redirect, guarding
// against open-redirect abuse of the next parameter.
func safeNextURL(next string) string {
	if next == "" {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
