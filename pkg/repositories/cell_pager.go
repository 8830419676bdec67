package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// CellPager is a finite, restartable iterator over the cells of one column,
// in fixed-size keyset-paginated batches. It decouples batch-size policy
// from migration control flow: the migration loop only ever sees one batch.
type CellPager struct {
	repo      CellRepository
	columnID  uuid.UUID
	batchSize int
	afterID   uuid.UUID
	done      bool
}

// NewCellPager creates a pager over columnID's cells.
func NewCellPager(repo CellRepository, columnID uuid.UUID, batchSize int) *CellPager {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CellPager{
		repo:      repo,
		columnID:  columnID,
		batchSize: batchSize,
	}
}

// Next returns the next batch of cells, or nil when the column is exhausted.
// Keyset pagination by cell ID keeps the iteration stable while the caller
// rewrites or deletes cells it has already seen.
func (p *CellPager) Next(ctx context.Context) ([]*models.Cell, error) {
	if p.done {
		return nil, nil
	}

	cells, err := p.repo.ListByColumnPage(ctx, p.columnID, p.afterID, p.batchSize)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		p.done = true
		return nil, nil
	}

	p.afterID = cells[len(cells)-1].ID
	if len(cells) < p.batchSize {
		p.done = true
	}
	return cells, nil
}

// Reset rewinds the pager so the column can be iterated again, e.g. for a
// fresh migration attempt after a rollback.
func (p *CellPager) Reset() {
	p.afterID = uuid.Nil
	p.done = false
}
