package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRandomID returns a unique id for a task, execution or webhook binding.
func NewRandomID() string {
	return uuid.New().String()
}

// NewSecret returns a hex encoded shared secret for webhook bindings.
func NewSecret() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// IsValidID returns true if the given string looks like an id we issued.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
