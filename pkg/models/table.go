package models

import (
	"time"

	"github.com/google/uuid"
)

// Table is a user-defined table belonging to a project.
type Table struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Project is a tenant. All tenant-scoped tables carry its ID and are
// isolated through row-level security.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
