package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridbase-io/gridbase-engine/pkg/apperrors"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// TypeChangeAuditRepository persists migration audit records. Records are
// append-only and informational; the migration engine treats write failures
// as non-fatal.
type TypeChangeAuditRepository interface {
	Insert(ctx context.Context, rec *models.TypeChangeAuditRecord) error
	ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*models.TypeChangeAuditRecord, error)
}

type typeChangeAuditRepository struct{}

// NewTypeChangeAuditRepository creates a new TypeChangeAuditRepository.
func NewTypeChangeAuditRepository() TypeChangeAuditRepository {
	return &typeChangeAuditRepository{}
}

var _ TypeChangeAuditRepository = (*typeChangeAuditRepository)(nil)

func (r *typeChangeAuditRepository) Insert(ctx context.Context, rec *models.TypeChangeAuditRecord) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	log, err := json.Marshal(rec.Log)
	if err != nil {
		return fmt.Errorf("failed to marshal conversion log: %w", err)
	}

	query := `
		INSERT INTO engine_type_change_audit
			(project_id, column_id, old_type, new_type, stats, log, user_id, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err = scope.Conn.QueryRow(ctx, query,
		rec.ProjectID, rec.ColumnID, string(rec.OldType), string(rec.NewType),
		stats, log, rec.UserID, rec.DurationMS).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

func (r *typeChangeAuditRepository) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*models.TypeChangeAuditRecord, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, column_id, old_type, new_type, stats, log, user_id, duration_ms, created_at
		FROM engine_type_change_audit
		WHERE column_id = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*models.TypeChangeAuditRecord
	for rows.Next() {
		var rec models.TypeChangeAuditRecord
		var oldType, newType string
		var stats, log []byte
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.ColumnID, &oldType, &newType,
			&stats, &log, &rec.UserID, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.OldType = models.ColumnType(oldType)
		rec.NewType = models.ColumnType(newType)
		if err := json.Unmarshal(stats, &rec.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
		if len(log) > 0 {
			if err := json.Unmarshal(log, &rec.Log); err != nil {
				return nil, fmt.Errorf("failed to unmarshal conversion log: %w", err)
			}
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
