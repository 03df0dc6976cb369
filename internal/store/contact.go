// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"modernblog/internal/models"
)

// ContactStore persists contact form messages and newsletter signups.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore creates a new ContactStore.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

// CreateMessage stores a contact form submission.
func (s *ContactStore) CreateMessage(m *models.ContactMessage) (*models.ContactMessage, error) {
	created := &models.ContactMessage{}
	err := s.db.QueryRow(`
		INSERT INTO contact_messages (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, subject, message, created_at
	`, m.Name, m.Email, m.Subject, m.Message).Scan(
		&created.ID, &created.Name, &created.Email, &created.Subject,
		&created.Message, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return created, nil
}

// Subscribe adds an email to the newsletter. A repeat subscription
// reactivates an unsubscribed address; subscribing an already active
// address is a no-op. Returns true when the call changed anything.
func (s *ContactStore) Subscribe(email string) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO newsletter_subscribers (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET is_active = TRUE
		WHERE newsletter_subscribers.is_active = FALSE
	`, email)
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subscribe: rows affected: %w", err)
	}
	return n > 0, nil
}

// Unsubscribe deactivates a subscription, keeping the row so the
// address's history survives. Returns false for unknown addresses.
func (s *ContactStore) Unsubscribe(email string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE newsletter_subscribers SET is_active = FALSE WHERE email = $1
	`, email)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unsubscribe: rows affected: %w", err)
	}
	return n > 0, nil
}

// IsSubscribed reports whether the email has an active subscription.
func (s *ContactStore) IsSubscribed(email string) (bool, error) {
	var active bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM newsletter_subscribers WHERE email = $1 AND is_active = TRUE
		)
	`, email).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("is subscribed: %w", err)
	}
	return active, nil
}
