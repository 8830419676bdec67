package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridbase-io/gridbase-engine/pkg/apperrors"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/jsonutil"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// CellRepository provides data access for cells. All methods run on the
// tenant scope's connection, so they participate in any transaction open on
// that connection - the type migration engine relies on this.
type CellRepository interface {
	// Upsert writes a cell value, creating the cell if the (row, column)
	// pair has none yet.
	Upsert(ctx context.Context, cell *models.Cell) error

	// GetByRowAndColumn retrieves one cell.
	GetByRowAndColumn(ctx context.Context, rowID, columnID uuid.UUID) (*models.Cell, error)

	// ListByRowIDs retrieves all cells of the given rows.
	ListByRowIDs(ctx context.Context, rowIDs []uuid.UUID) ([]*models.Cell, error)

	// CountByColumn counts the cells under a column.
	CountByColumn(ctx context.Context, columnID uuid.UUID) (int64, error)

	// ListByColumnPage returns up to limit cells of a column with ID greater
	// than afterID, in ID order. Backs the keyset pager.
	ListByColumnPage(ctx context.Context, columnID, afterID uuid.UUID, limit int) ([]*models.Cell, error)

	// UpdateValue overwrites a cell's value. A nil value stores SQL NULL.
	UpdateValue(ctx context.Context, cellID uuid.UUID, value any) error

	// Delete removes a cell.
	Delete(ctx context.Context, cellID uuid.UUID) error
}

type cellRepository struct{}

// NewCellRepository creates a new CellRepository.
func NewCellRepository() CellRepository {
	return &cellRepository{}
}

var _ CellRepository = (*cellRepository)(nil)

func (r *cellRepository) Upsert(ctx context.Context, cell *models.Cell) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	payload, err := jsonutil.Encode(cell.Value)
	if err != nil {
		return fmt.Errorf("failed to encode cell value: %w", err)
	}

	query := `
		INSERT INTO engine_cells (project_id, row_id, column_id, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (row_id, column_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING id, created_at`

	err = scope.Conn.QueryRow(ctx, query, cell.ProjectID, cell.RowID, cell.ColumnID, payload).
		Scan(&cell.ID, &cell.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cell: %w", err)
	}
	return nil
}

func (r *cellRepository) GetByRowAndColumn(ctx context.Context, rowID, columnID uuid.UUID) (*models.Cell, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, row_id, column_id, value, created_at, updated_at
		FROM engine_cells
		WHERE row_id = $1 AND column_id = $2`

	cell, err := scanCell(scope.Conn.QueryRow(ctx, query, rowID, columnID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrCellNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cell: %w", err)
	}
	return cell, nil
}

func (r *cellRepository) ListByRowIDs(ctx context.Context, rowIDs []uuid.UUID) ([]*models.Cell, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}
	if len(rowIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, project_id, row_id, column_id, value, created_at, updated_at
		FROM engine_cells
		WHERE row_id = ANY($1)
		ORDER BY row_id, column_id`

	rows, err := scope.Conn.Query(ctx, query, rowIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	return collectCells(rows)
}

func (r *cellRepository) CountByColumn(ctx context.Context, columnID uuid.UUID) (int64, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, apperrors.ErrNoTenantScope
	}

	var count int64
	err := scope.Conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM engine_cells WHERE column_id = $1", columnID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cells: %w", err)
	}
	return count, nil
}

func (r *cellRepository) ListByColumnPage(ctx context.Context, columnID, afterID uuid.UUID, limit int) ([]*models.Cell, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, apperrors.ErrNoTenantScope
	}

	query := `
		SELECT id, project_id, row_id, column_id, value, created_at, updated_at
		FROM engine_cells
		WHERE column_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`

	rows, err := scope.Conn.Query(ctx, query, columnID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page cells: %w", err)
	}
	defer rows.Close()

	return collectCells(rows)
}

func (r *cellRepository) UpdateValue(ctx context.Context, cellID uuid.UUID, value any) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	payload, err := jsonutil.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode cell value: %w", err)
	}

	tag, err := scope.Conn.Exec(ctx,
		"UPDATE engine_cells SET value = $1, updated_at = now() WHERE id = $2",
		payload, cellID)
	if err != nil {
		return fmt.Errorf("failed to update cell value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCellNotFound
	}
	return nil
}

func (r *cellRepository) Delete(ctx context.Context, cellID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return apperrors.ErrNoTenantScope
	}

	tag, err := scope.Conn.Exec(ctx, "DELETE FROM engine_cells WHERE id = $1", cellID)
	if err != nil {
		return fmt.Errorf("failed to delete cell: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCellNotFound
	}
	return nil
}

// scanCell scans a single cell row, decoding the JSONB value payload.
func scanCell(row pgx.Row) (*models.Cell, error) {
	var cell models.Cell
	var raw []byte
	if err := row.Scan(&cell.ID, &cell.ProjectID, &cell.RowID, &cell.ColumnID, &raw,
		&cell.CreatedAt, &cell.UpdatedAt); err != nil {
		return nil, err
	}
	cell.Value = jsonutil.Decode(raw)
	return &cell, nil
}

func collectCells(rows pgx.Rows) ([]*models.Cell, error) {
	var cells []*models.Cell
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}
