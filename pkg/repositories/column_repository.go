package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridbase-io/gridbase-engine/pkg/apperrors"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// ColumnRepository provides data access for columns. UpdateType runs on the
// tenant scope's connection, so when a caller has an open transaction on
// that connection the update participates in it.
type ColumnRepository interface {
	Create(ctx context.Context, column *models.Column) error
	GetByID(ctx context.Context, columnID uuid.UUID) (*models.Column, error)
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)
	UpdateType(ctx context.Context, columnID uuid.UUID, newType models.ColumnType) error
	Delete(ctx context.Context, columnID uuid.UUID) error
}

type columnRepository struct{}

// NewColumnRepository creates a new ColumnRepository.
func NewColumnRepository() ColumnRepository {
	return &columnRepository{}
}

var _ ColumnRepository = (*columnRepository)(nil)

func (r *columnRepository) Create(ctx context.Context, column *models.Column) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	if !column.Type.IsValid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidType, column.Type)
	}

	query := `
		INSERT INTO engine_columns (project_id, table_id, name, type, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		column.ProjectID, column.TableID, column.Name, string(column.Type), column.Position).
		Scan(&column.ID, &column.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create column: %w", err)
	}
	return nil
}

func (r *columnRepository) GetByID(ctx context.Context, columnID uuid.UUID) (*models.Column, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, table_id, name, type, position, created_at, updated_at
		FROM engine_columns
		WHERE id = $1`

	var col models.Column
	var colType string
	err := scope.Conn.QueryRow(ctx, query, columnID).Scan(
		&col.ID, &col.ProjectID, &col.TableID, &col.Name, &colType, &col.Position,
		&col.CreatedAt, &col.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrColumnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get column: %w", err)
	}
	col.Type = models.ColumnType(colType)
	return &col, nil
}

func (r *columnRepository) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, table_id, name, type, position, created_at, updated_at
		FROM engine_columns
		WHERE table_id = $1
		ORDER BY position, created_at`

	rows, err := scope.Conn.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	var columns []*models.Column
	for rows.Next() {
		var col models.Column
		var colType string
		if err := rows.Scan(&col.ID, &col.ProjectID, &col.TableID, &col.Name, &colType,
			&col.Position, &col.CreatedAt, &col.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Type = models.ColumnType(colType)
		columns = append(columns, &col)
	}
	return columns, rows.Err()
}

func (r *columnRepository) UpdateType(ctx context.Context, columnID uuid.UUID, newType models.ColumnType) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	if !newType.IsValid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidType, newType)
	}

	tag, err := scope.Conn.Exec(ctx,
		"UPDATE engine_columns SET type = $1, updated_at = now() WHERE id = $2",
		string(newType), columnID)
	if err != nil {
		return fmt.Errorf("failed to update column type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrColumnNotFound
	}
	return nil
}

func (r *columnRepository) Delete(ctx context.Context, columnID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	tag, err := scope.Conn.Exec(ctx, "DELETE FROM engine_columns WHERE id = $1", columnID)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrColumnNotFound
	}
	return nil
}
