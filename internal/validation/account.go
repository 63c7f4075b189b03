// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxBioLength      = 500
	maxWebsiteLength  = 200
)

// Usernames share the character class used by @mention extraction so every
// account can be mentioned.
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"auth":          {},
	"devgram":       {},
	"explore":       {},
	"follow":        {},
	"health":        {},
	"login":         {},
	"logout":        {},
	"media":         {},
	"messages":      {},
	"metrics":       {},
	"notifications": {},
	"posts":         {},
	"profile":       {},
	"register":      {},
	"search":        {},
	"settings":      {},
	"swagger":       {},
	"users":         {},
	"ws":            {},
}

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateUsername checks format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters and contain only letters, numbers, and underscores")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address of sane length.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateProfile checks free-text profile fields.
func ValidateProfile(bio, website string) error {
	if utf8.RuneCountInString(bio) > maxBioLength {
		return fmt.Errorf("bio must not exceed %d characters", maxBioLength)
	}
	if len(website) > maxWebsiteLength {
		return fmt.Errorf("website must not exceed %d characters", maxWebsiteLength)
	}
	if website != "" && !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		return fmt.Errorf("website must start with http:// or https://")
	}
	return nil
}
