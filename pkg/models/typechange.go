package models

import (
	"time"

	"github.com/google/uuid"
)

// TypeChangeOptions is the caller-supplied policy for a column type
// migration. Exactly one of DeleteIncompatible/ConvertToNull must be chosen
// when any cell is predicted to fail conversion; AcceptLoss must be set when
// any cell is predicted to lose precision; Confirmed is always required.
type TypeChangeOptions struct {
	DeleteIncompatible bool      `json:"delete_incompatible"`
	ConvertToNull      bool      `json:"convert_to_null"`
	AcceptLoss         bool      `json:"accept_loss"`
	Confirmed          bool      `json:"confirmed"`
	UserID             uuid.UUID `json:"user_id"`
}

// ConversionStatus is the terminal disposition of one cell during a type
// migration.
type ConversionStatus string

const (
	ConversionSuccess   ConversionStatus = "success"
	ConversionLossy     ConversionStatus = "lossy"
	ConversionDeleted   ConversionStatus = "deleted"
	ConversionNullified ConversionStatus = "nullified"
	ConversionFailed    ConversionStatus = "failed"
)

// CellConversionLogEntry is one append-only audit entry produced per
// processed cell during a migration. Null/empty cells produce no entry but
// still count as converted.
type CellConversionLogEntry struct {
	CellID   uuid.UUID        `json:"cell_id"`
	RowID    uuid.UUID        `json:"row_id"`
	OldValue any              `json:"old_value"`
	NewValue any              `json:"new_value,omitempty"`
	Status   ConversionStatus `json:"status"`
	Warning  string           `json:"warning,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// TypeChangeStats holds exact per-outcome counts for a migration. Lossy is a
// subset of Converted.
type TypeChangeStats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
	Deleted   int `json:"deleted"`
	Nullified int `json:"nullified"`
	Lossy     int `json:"lossy"`
	Failed    int `json:"failed"`
}

// TypeChangeResult is returned on successful migration.
type TypeChangeResult struct {
	Column     *Column                  `json:"column"`
	Stats      TypeChangeStats          `json:"stats"`
	Log        []CellConversionLogEntry `json:"log"`
	DurationMS int64                    `json:"duration_ms"`
}

// TypeChangeAnalysis is the analyzer's prediction of migration outcomes,
// produced by a read-only dry run over the column's cells.
type TypeChangeAnalysis struct {
	ColumnID     uuid.UUID  `json:"column_id"`
	CurrentType  ColumnType `json:"current_type"`
	TargetType   ColumnType `json:"target_type"`
	Total        int        `json:"total"`
	WillConvert  int        `json:"will_convert"`
	WillLoseData int        `json:"will_lose_data"`
	WillFail     int        `json:"will_fail"`
	SampleErrors []string   `json:"sample_errors,omitempty"`
}

// ValidationResult reports pre-flight validation of TypeChangeOptions. It is
// purely informational; the caller is responsible for honoring Valid.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// DurationEstimate is a human-readable migration duration estimate used for
// progress display only, never for timeout enforcement.
type DurationEstimate struct {
	Seconds     int64  `json:"seconds"`
	DisplayText string `json:"display_text"`
}

// TypeChangeAuditRecord is the persisted audit trail of one migration. The
// write is best-effort: losing it never fails the migration.
type TypeChangeAuditRecord struct {
	ID         uuid.UUID                `json:"id"`
	ProjectID  uuid.UUID                `json:"project_id"`
	ColumnID   uuid.UUID                `json:"column_id"`
	OldType    ColumnType               `json:"old_type"`
	NewType    ColumnType               `json:"new_type"`
	Stats      TypeChangeStats          `json:"stats"`
	Log        []CellConversionLogEntry `json:"log"`
	UserID     uuid.UUID                `json:"user_id"`
	DurationMS int64                    `json:"duration_ms"`
	CreatedAt  time.Time                `json:"created_at"`
}
