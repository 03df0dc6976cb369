package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"modernblog/internal/models"
	"modernblog/internal/render"
	"modernblog/internal/store"
)

// Contact groups the contact form and newsletter handlers.
type Contact struct {
	renderer      *render.Renderer
	contactStore  *store.ContactStore
	siteInfoStore *store.SiteInfoStore
}

// NewContact creates a new Contact handler group.
func NewContact(renderer *render.Renderer, contactStore *store.ContactStore, siteInfoStore *store.SiteInfoStore) *Contact {
	return &Contact{
		renderer:      renderer,
		contactStore:  contactStore,
		siteInfoStore: siteInfoStore,
	}
}

// Page renders the contact form.
func (c *Contact) Page(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, r, map[string]any{})
}

func (c *Contact) renderForm(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if info, err := c.siteInfoStore.Get(); err == nil && info != nil {
		data["SiteEmail"] = info.Email
	}
	c.renderer.Page(w, r, "contact", &render.PageData{
		Title:   "Contact",
		Section: "contact",
		Data:    data,
	})
}

// Submit stores a contact message.
func (c *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	subject := strings.TrimSpace(r.FormValue("subject"))
	message := strings.TrimSpace(r.FormValue("message"))

	if msg := validateContactForm(name, email, subject, message); msg != "" {
		c.renderForm(w, r, map[string]any{
			"Error":   msg,
			"Name":    name,
			"Email":   email,
			"Subject": subject,
			"Message": message,
		})
		return
	}

	_, err := c.contactStore.CreateMessage(&models.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	})
	if err != nil {
		slog.Error("create contact message failed", "error", err)
		c.renderForm(w, r, map[string]any{
			"Error":   "An unexpected error occurred. Please try again.",
			"Name":    name,
			"Email":   email,
			"Subject": subject,
			"Message": message,
		})
		return
	}

	slog.Info("contact message received", "subject", subject)
	c.renderForm(w, r, map[string]any{"Sent": true})
}

// NewsletterSubscribe signs an address up for the newsletter. Responds
// with JSON for API clients and redirects browsers back to the page they
// came from. Repeat subscriptions are a friendly no-op.
func (c *Contact) NewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if msg := validateEmail(email); msg != "" {
		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
			return
		}
		http.Redirect(w, r, referrerOrHome(r), http.StatusSeeOther)
		return
	}

	if _, err := c.contactStore.Subscribe(email); err != nil {
		slog.Error("newsletter subscribe failed", "error", err)
		if wantsJSON(r) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, referrerOrHome(r), http.StatusSeeOther)
		return
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, referrerOrHome(r), http.StatusSeeOther)
}

// NewsletterUnsubscribe deactivates a subscription. The address is kept
// so a later resubscribe reactivates it.
func (c *Contact) NewsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if msg := validateEmail(email); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	ok, err := c.contactStore.Unsubscribe(email)
	if err != nil {
		slog.Error("newsletter unsubscribe failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": ok})
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// referrerOrHome returns a safe local redirect target after a footer
// form submission.
func referrerOrHome(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	return "/"
}
