package services

import "github.com/google/uuid"

// newID returns a time-ordered unique identifier.
// Version 7 UUIDs carry a millisecond timestamp followed by random bits.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
