// Package store provides database access methods for all blog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"modernblog/internal/models"
)

// userColumns is the scan list shared by all user queries.
const userColumns = `
	id, email, username, password_hash, full_name, bio, avatar_key, phone,
	gender, birth_date, website, x, instagram, telegram, github,
	profile_public, is_verified, is_premium, is_active,
	totp_secret, totp_enabled, last_activity, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Bio,
		&u.AvatarKey, &u.Phone, &u.Gender, &u.BirthDate,
		&u.Website, &u.X, &u.Instagram, &u.Telegram, &u.GitHub,
		&u.ProfilePublic, &u.IsVerified, &u.IsPremium, &u.IsActive,
		&u.TOTPSecret, &u.TOTPEnabled, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByUsername retrieves a user by their public handle. Returns nil if not found.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(email, password, username, fullName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRow(`
		INSERT INTO users (email, password_hash, username, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, string(hash), username, fullName))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateProfile saves the editable profile fields.
func (s *UserStore) UpdateProfile(u *models.User) error {
	_, err := s.db.Exec(`
		UPDATE users SET
			full_name = $1, bio = $2, phone = $3, gender = $4, birth_date = $5,
			website = $6, x = $7, instagram = $8, telegram = $9, github = $10,
			updated_at = NOW()
		WHERE id = $11
	`, u.FullName, u.Bio, u.Phone, u.Gender, u.BirthDate,
		u.Website, u.X, u.Instagram, u.Telegram, u.GitHub, u.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateEmail changes the authentication email.
func (s *UserStore) UpdateEmail(userID uuid.UUID, email string) error {
	_, err := s.db.Exec(`
		UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2
	`, email, userID)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash with a new bcrypt hash.
func (s *UserStore) UpdatePassword(userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetAvatarKey stores the S3 object key of the user's avatar.
func (s *UserStore) SetAvatarKey(userID uuid.UUID, key string) error {
	_, err := s.db.Exec(`
		UPDATE users SET avatar_key = $1, updated_at = NOW() WHERE id = $2
	`, key, userID)
	if err != nil {
		return fmt.Errorf("set avatar key: %w", err)
	}
	return nil
}

// SetProfilePublic toggles whether the profile is publicly visible and
// returns the new value.
func (s *UserStore) SetProfilePublic(userID uuid.UUID, public bool) error {
	_, err := s.db.Exec(`
		UPDATE users SET profile_public = $1, updated_at = NOW() WHERE id = $2
	`, public, userID)
	if err != nil {
		return fmt.Errorf("set profile public: %w", err)
	}
	return nil
}

// TouchActivity records the time of the user's latest authenticated request.
func (s *UserStore) TouchActivity(userID uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE users SET last_activity = $1 WHERE id = $2
	`, at, userID)
	if err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}

// Deactivate marks the account inactive. The row is kept so posts and
// comments retain their author linkage.
func (s *UserStore) Deactivate(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(userID uuid.UUID, secret string) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
