package domain

import (
	"context"
	"time"
)

// Event is the occasion registration groups sign up for. OwnerID is the organizer.
// swagger:model Event
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventRepository defines read access to events.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
}
