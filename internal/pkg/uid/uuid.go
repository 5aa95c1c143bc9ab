// Package uid generates identifiers for correlation ids and events.
package uid

import "github.com/google/uuid"

// StringID generates textual identifiers.
type StringID interface {
	Generate() string
}

// UUID generates RFC 9562 version 7 UUID strings, which sort by creation time.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString() // fallback: uuidV4
	}
	return id.String()
}

// Static returns the same identifier on every call.
type Static string

// Generate returns s.
func (s Static) Generate() string {
	return string(s)
}
