package models

import (
	"time"

	"github.com/google/uuid"
)

// ColumnType is the declared type of a column. Every cell value under a
// column must be interpretable under the column's current declared type,
// except transiently inside a type-migration transaction.
type ColumnType string

const (
	ColumnTypeText        ColumnType = "text"
	ColumnTypeString      ColumnType = "string"
	ColumnTypeEmail       ColumnType = "email"
	ColumnTypeURL         ColumnType = "url"
	ColumnTypeCustomArray ColumnType = "customArray"
	ColumnTypeNumber      ColumnType = "number"
	ColumnTypeInteger     ColumnType = "integer"
	ColumnTypeDecimal     ColumnType = "decimal"
	ColumnTypeBoolean     ColumnType = "boolean"
	ColumnTypeDate        ColumnType = "date"
	ColumnTypeDatetime    ColumnType = "datetime"
	ColumnTypeTime        ColumnType = "time"
	ColumnTypeJSON        ColumnType = "json"
	ColumnTypeReference   ColumnType = "reference"
)

// columnTypes is the closed set of valid declared types.
var columnTypes = map[ColumnType]struct{}{
	ColumnTypeText:        {},
	ColumnTypeString:      {},
	ColumnTypeEmail:       {},
	ColumnTypeURL:         {},
	ColumnTypeCustomArray: {},
	ColumnTypeNumber:      {},
	ColumnTypeInteger:     {},
	ColumnTypeDecimal:     {},
	ColumnTypeBoolean:     {},
	ColumnTypeDate:        {},
	ColumnTypeDatetime:    {},
	ColumnTypeTime:        {},
	ColumnTypeJSON:        {},
	ColumnTypeReference:   {},
}

// IsValid reports whether t is a member of the closed type enumeration.
func (t ColumnType) IsValid() bool {
	_, ok := columnTypes[t]
	return ok
}

// IsTextual reports whether t belongs to the string family. The string
// family coerces any value by stringification and never fails.
func (t ColumnType) IsTextual() bool {
	switch t {
	case ColumnTypeText, ColumnTypeString, ColumnTypeEmail, ColumnTypeURL, ColumnTypeCustomArray:
		return true
	}
	return false
}

// IsNumeric reports whether t belongs to the numeric family.
func (t ColumnType) IsNumeric() bool {
	switch t {
	case ColumnTypeNumber, ColumnTypeInteger, ColumnTypeDecimal:
		return true
	}
	return false
}

// IsTemporal reports whether t is a date or datetime column. Time-of-day
// columns are excluded: they compare lexicographically, not as instants.
func (t ColumnType) IsTemporal() bool {
	return t == ColumnTypeDate || t == ColumnTypeDatetime
}

// Column is a user-defined column of a table. Type is the only mutable
// structural attribute and is rewritten exclusively by the type migration
// engine, atomically with all cell rewrites.
type Column struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	TableID   uuid.UUID  `json:"table_id"`
	Name      string     `json:"name"`
	Type      ColumnType `json:"type"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
