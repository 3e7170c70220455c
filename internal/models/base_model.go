package models

import (
	"time"

	"github.com/google/uuid"
)

// Record provides the identity and timestamps shared by every cached collection entry.
type Record struct {
	ID        string    `json:"id" validate:"required"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// GetID returns the record identifier.
func (r *Record) GetID() string { return r.ID }

// Touch assigns a UUID when the record has none and stamps the timestamps.
func (r *Record) Touch(now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}
