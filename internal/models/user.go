// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender is an optional self-reported profile field.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents a registered account. Email is the authentication
// identifier; username is the public handle used in URLs.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	FullName     string     `json:"full_name"`
	Bio          string     `json:"bio"`
	AvatarKey    *string    `json:"-"` // S3 key; resolved to a URL by handlers
	Phone        string     `json:"phone"`
	Gender       *Gender    `json:"gender,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`

	// Social links shown on the public profile.
	Website   string `json:"website"`
	X         string `json:"x"`
	Instagram string `json:"instagram"`
	Telegram  string `json:"telegram"`
	GitHub    string `json:"github"`

	ProfilePublic bool `json:"profile_public"`
	IsVerified    bool `json:"is_verified"`
	IsPremium     bool `json:"is_premium"`
	IsActive      bool `json:"is_active"`

	TOTPSecret  *string `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled bool    `json:"totp_enabled"`

	LastActivity *time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns the full name when set, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Needs2FASetup returns true if the user opted into 2FA but has not
// completed enrollment.
func (u *User) Needs2FASetup() bool {
	return u.TOTPSecret != nil && !u.TOTPEnabled
}

// SocialLinks returns the non-empty social links keyed by platform name.
func (u *User) SocialLinks() map[string]string {
	links := make(map[string]string)
	for name, url := range map[string]string{
		"website":   u.Website,
		"x":         u.X,
		"instagram": u.Instagram,
		"telegram":  u.Telegram,
		"github":    u.GitHub,
	} {
		if url != "" {
			links[name] = url
		}
	}
	return links
}

// Age returns the user's age in whole years, or 0 if birth date is unset.
func (u *User) Age(now time.Time) int {
	if u.BirthDate == nil {
		return 0
	}
	years := now.Year() - u.BirthDate.Year()
	// Birthday hasn't occurred yet this year.
	if now.YearDay() < u.BirthDate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
