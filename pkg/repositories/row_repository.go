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
	"github.com/gridbase-io/gridbase-engine/pkg/query"
)

// RowRepository provides data access for rows, including execution of
// compiled filter conditions.
type RowRepository interface {
	Create(ctx context.Context, row *models.Row) error
	GetByID(ctx context.Context, rowID uuid.UUID) (*models.Row, error)
	Delete(ctx context.Context, rowID uuid.UUID) error

	// Query executes a compiled composite condition and returns the
	// matching rows, without cells. Callers hydrate cells separately.
	Query(ctx context.Context, cond *query.Condition) ([]*models.Row, error)
}

type rowRepository struct{}

// NewRowRepository creates a new RowRepository.
func NewRowRepository() RowRepository {
	return &rowRepository{}
}

var _ RowRepository = (*rowRepository)(nil)

func (r *rowRepository) Create(ctx context.Context, row *models.Row) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	q := `
		INSERT INTO engine_rows (project_id, table_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, q, row.ProjectID, row.TableID).
		Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create row: %w", err)
	}
	return nil
}

func (r *rowRepository) GetByID(ctx context.Context, rowID uuid.UUID) (*models.Row, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	q := `
		SELECT id, project_id, table_id, created_at, updated_at
		FROM engine_rows
		WHERE id = $1`

	var row models.Row
	err := scope.Conn.QueryRow(ctx, q, rowID).Scan(
		&row.ID, &row.ProjectID, &row.TableID, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get row: %w", err)
	}
	return &row, nil
}

func (r *rowRepository) Delete(ctx context.Context, rowID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	tag, err := scope.Conn.Exec(ctx, "DELETE FROM engine_rows WHERE id = $1", rowID)
	if err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRowNotFound
	}
	return nil
}

func (r *rowRepository) Query(ctx context.Context, cond *query.Condition) ([]*models.Row, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	sql, args := query.BuildRowQuery(cond)

	rows, err := scope.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute row query: %w", err)
	}
	defer rows.Close()

	var result []*models.Row
	for rows.Next() {
		var row models.Row
		if err := rows.Scan(&row.ID, &row.ProjectID, &row.TableID, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}
