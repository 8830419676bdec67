package models

import (
	"time"

	"github.com/google/uuid"
)

// Row belongs to exactly one table and owns up to one cell per column.
type Row struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	TableID   uuid.UUID  `json:"table_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Cells     []*Cell    `json:"cells,omitempty"`
}

// Cell is the JSON-valued datum at the intersection of one row and one
// column. Value holds the decoded JSON value: nil for SQL NULL and JSON
// null, string, float64, bool, map[string]any or []any.
type Cell struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	RowID     uuid.UUID  `json:"row_id"`
	ColumnID  uuid.UUID  `json:"column_id"`
	Value     any        `json:"value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsEmpty reports whether the cell holds no usable data. Absent data never
// blocks a type change and never matches a non-emptiness filter.
func (c *Cell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	s, ok := c.Value.(string)
	return ok && s == ""
}
