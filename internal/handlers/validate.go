package handlers

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for form fields.
const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	maxTitleLen    = 200
	maxBodyLen     = 100_000
	maxExcerptLen  = 300
	maxMetaDescLen = 160
	maxMetaKwLen   = 255
	minCommentLen  = 10
	maxCommentLen  = 1_000
	maxNotesLen    = 500
	maxNameLen     = 100
	maxSubjectLen  = 200
	maxMessageLen  = 10_000
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// validateUsername checks the public handle used in profile URLs.
func validateUsername(username string) string {
	if utf8.RuneCountInString(username) < minUsernameLen {
		return "Username must be at least 3 characters."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 30 characters)."
	}
	if !usernamePattern.MatchString(username) {
		return "Username may only contain letters, digits, dots, dashes and underscores."
	}
	return ""
}

// validateEmail checks address syntax.
func validateEmail(email string) string {
	if email == "" {
		return "Email is required."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Please enter a valid email address."
	}
	return ""
}

// validatePassword checks the new password and its confirmation.
func validatePassword(password, confirm string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if password != confirm {
		return "Passwords do not match."
	}
	return ""
}

// validatePost checks blog post form inputs and returns the first error found.
func validatePost(title, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 200 characters)."
	}
	if strings.TrimSpace(body) == "" {
		return "Post body is required."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Post body is too long (max 100,000 characters)."
	}
	return ""
}

// validatePostMetadata checks optional SEO metadata fields.
func validatePostMetadata(excerpt, metaDesc, metaKw string) string {
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return "Excerpt is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(metaDesc) > maxMetaDescLen {
		return "Meta description is too long (max 160 characters)."
	}
	if utf8.RuneCountInString(metaKw) > maxMetaKwLen {
		return "Meta keywords are too long (max 255 characters)."
	}
	return ""
}

// validateComment checks a comment body.
func validateComment(content string) string {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < minCommentLen {
		return "Comment must be at least 10 characters."
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "Comment is too long (max 1,000 characters)."
	}
	return ""
}

// validateContactForm checks the contact form and returns the first error found.
func validateContactForm(name, email, subject, message string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)."
	}
	if msg := validateEmail(email); msg != "" {
		return msg
	}
	if strings.TrimSpace(subject) == "" {
		return "Subject is required."
	}
	if utf8.RuneCountInString(subject) > maxSubjectLen {
		return "Subject is too long (max 200 characters)."
	}
	if strings.TrimSpace(message) == "" {
		return "Message is required."
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return "Message is too long (max 10,000 characters)."
	}
	return ""
}
