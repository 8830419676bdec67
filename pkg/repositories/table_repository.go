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

// TableRepository provides data access for user-defined tables.
type TableRepository interface {
	Create(ctx context.Context, table *models.Table) error
	GetByID(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Table, error)
	Delete(ctx context.Context, tableID uuid.UUID) error
}

type tableRepository struct{}

// NewTableRepository creates a new TableRepository.
func NewTableRepository() TableRepository {
	return &tableRepository{}
}

var _ TableRepository = (*tableRepository)(nil)

func (r *tableRepository) Create(ctx context.Context, table *models.Table) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	query := `
		INSERT INTO engine_tables (project_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query, table.ProjectID, table.Name).
		Scan(&table.ID, &table.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, name, created_at, updated_at
		FROM engine_tables
		WHERE id = $1`

	var table models.Table
	err := scope.Conn.QueryRow(ctx, query, tableID).Scan(
		&table.ID, &table.ProjectID, &table.Name, &table.CreatedAt, &table.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return &table, nil
}

func (r *tableRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Table, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, name, created_at, updated_at
		FROM engine_tables
		WHERE project_id = $1
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		var table models.Table
		if err := rows.Scan(&table.ID, &table.ProjectID, &table.Name, &table.CreatedAt, &table.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &table)
	}
	return tables, rows.Err()
}

func (r *tableRepository) Delete(ctx context.Context, tableID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	tag, err := scope.Conn.Exec(ctx, "DELETE FROM engine_tables WHERE id = $1", tableID)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTableNotFound
	}
	return nil
}
