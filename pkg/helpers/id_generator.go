package helpers

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRequestID generates a request ID for correlating log lines
// Format: req-<uuid>
func GenerateRequestID() string {
	return "req-" + uuid.New().String()
}
