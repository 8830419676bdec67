package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/query"
	"github.com/gridbase-io/gridbase-engine/pkg/repositories"
)

// RowQueryRequest carries the caller's filter specification for one read.
type RowQueryRequest struct {
	Search  string                `json:"search,omitempty"`
	Filters []models.FilterConfig `json:"filters,omitempty"`
}

// RowQueryService compiles filter requests and executes them against the
// row store.
type RowQueryService interface {
	// QueryRows returns the rows of tableID matching the request, with
	// cells hydrated. Malformed filters are dropped, never fatal.
	QueryRows(ctx context.Context, tableID uuid.UUID, req *RowQueryRequest) ([]*models.Row, error)
}

type rowQueryService struct {
	compiler *query.Compiler
	rowRepo  repositories.RowRepository
	cellRepo repositories.CellRepository
	logger   *zap.Logger
}

// NewRowQueryService creates a new RowQueryService.
func NewRowQueryService(
	rowRepo repositories.RowRepository,
	cellRepo repositories.CellRepository,
	logger *zap.Logger,
) RowQueryService {
	return &rowQueryService{
		compiler: query.NewCompiler(logger),
		rowRepo:  rowRepo,
		cellRepo: cellRepo,
		logger:   logger.Named("row-query-service"),
	}
}

var _ RowQueryService = (*rowQueryService)(nil)

func (s *rowQueryService) QueryRows(ctx context.Context, tableID uuid.UUID, req *RowQueryRequest) ([]*models.Row, error) {
	if req == nil {
		req = &RowQueryRequest{}
	}

	cond := s.compiler.Compile(tableID, req.Search, req.Filters)

	rows, err := s.rowRepo.Query(ctx, cond)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	rowIDs := make([]uuid.UUID, len(rows))
	byID := make(map[uuid.UUID]*models.Row, len(rows))
	for i, row := range rows {
		rowIDs[i] = row.ID
		byID[row.ID] = row
	}

	cells, err := s.cellRepo.ListByRowIDs(ctx, rowIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load cells: %w", err)
	}
	for _, cell := range cells {
		if row := byID[cell.RowID]; row != nil {
			row.Cells = append(row.Cells, cell)
		}
	}

	s.logger.Debug("Row query executed",
		zap.String("table_id", tableID.String()),
		zap.Int("filters", len(req.Filters)),
		zap.Int("rows", len(rows)))

	return rows, nil
}
