// Package models contains the DevGram domain types shared by the SQL and
// document storage backends.
package models

import "github.com/google/uuid"

// DefaultAvatar is assigned to accounts that never uploaded one.
const DefaultAvatar = "/placeholder.svg?height=150&width=150"

// UnknownAvatar is shown for notification senders that no longer exist.
const UnknownAvatar = "/placeholder.svg"

// NewID returns a fresh identifier for any stored entity.
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
