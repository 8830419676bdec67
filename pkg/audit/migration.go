// Package audit provides structured audit logging for administrative data
// mutations. Events are emitted as structured JSON under a dedicated logger
// namespace so downstream log pipelines can filter and alert on them.
package audit

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// EventType categorizes auditable events for filtering and alerting.
type EventType string

const (
	// EventTypeChangeCompleted is logged when a column type migration
	// commits.
	EventTypeChangeCompleted EventType = "column_type_change_completed"
	// EventTypeChangeFailed is logged when a column type migration rolls
	// back.
	EventTypeChangeFailed EventType = "column_type_change_failed"
)

// TypeChangeDetails carries the context of one migration event.
type TypeChangeDetails struct {
	ColumnID   uuid.UUID              `json:"column_id"`
	OldType    models.ColumnType      `json:"old_type"`
	NewType    models.ColumnType      `json:"new_type"`
	Stats      models.TypeChangeStats `json:"stats"`
	DurationMS int64                  `json:"duration_ms"`
	UserID     uuid.UUID              `json:"user_id"`
}

// MigrationAuditor emits audit events for column type migrations. It is a
// logging sink only; the durable audit trail lives in
// engine_type_change_audit.
type MigrationAuditor struct {
	logger *zap.Logger
}

// NewMigrationAuditor creates an auditor with a dedicated logger namespace.
func NewMigrationAuditor(logger *zap.Logger) *MigrationAuditor {
	return &MigrationAuditor{logger: logger.Named("migration_audit")}
}

// LogTypeChange records a committed migration with its exact per-outcome
// counts.
func (a *MigrationAuditor) LogTypeChange(projectID uuid.UUID, details TypeChangeDetails) {
	a.logger.Info("Column type change completed",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventTypeChangeCompleted)),
		zap.String("project_id", projectID.String()),
		zap.String("column_id", details.ColumnID.String()),
		zap.String("old_type", string(details.OldType)),
		zap.String("new_type", string(details.NewType)),
		zap.Int("total", details.Stats.Total),
		zap.Int("converted", details.Stats.Converted),
		zap.Int("lossy", details.Stats.Lossy),
		zap.Int("deleted", details.Stats.Deleted),
		zap.Int("nullified", details.Stats.Nullified),
		zap.Int64("duration_ms", details.DurationMS),
		zap.String("user_id", details.UserID.String()),
	)
}

// LogTypeChangeFailure records a rolled-back migration. Logged at ERROR so
// repeated failures surface in alerting.
func (a *MigrationAuditor) LogTypeChangeFailure(projectID uuid.UUID, details TypeChangeDetails, reason string) {
	a.logger.Error("Column type change failed",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventTypeChangeFailed)),
		zap.String("project_id", projectID.String()),
		zap.String("column_id", details.ColumnID.String()),
		zap.String("old_type", string(details.OldType)),
		zap.String("new_type", string(details.NewType)),
		zap.Int("failed", details.Stats.Failed),
		zap.String("reason", reason),
		zap.String("user_id", details.UserID.String()),
	)
}
