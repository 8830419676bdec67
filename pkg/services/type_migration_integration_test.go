//go:build integration

package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/config"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/repositories"
	"github.com/gridbase-io/gridbase-engine/pkg/testhelpers"
)

type migrationFixture struct {
	ctx       context.Context
	projectID uuid.UUID
	column    *models.Column
	cellRepo  repositories.CellRepository
	svc       TypeMigrationService
}

// newMigrationFixture provisions a tenant, a single-column table, and one
// cell per value.
func newMigrationFixture(t *testing.T, colType models.ColumnType, values ...any) *migrationFixture {
	t.Helper()
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()

	admin, err := db.WithoutTenant(ctx)
	require.NoError(t, err)
	var projectID uuid.UUID
	err = admin.Conn.QueryRow(ctx,
		"INSERT INTO engine_projects (name) VALUES ($1) RETURNING id", t.Name()).
		Scan(&projectID)
	admin.Close()
	require.NoError(t, err)

	scope, err := db.WithTenant(ctx, projectID)
	require.NoError(t, err)
	t.Cleanup(scope.Close)
	ctx = database.SetTenantScope(ctx, scope)

	table := &models.Table{ProjectID: projectID, Name: "data"}
	require.NoError(t, repositories.NewTableRepository().Create(ctx, table))

	columnRepo := repositories.NewColumnRepository()
	column := &models.Column{ProjectID: projectID, TableID: table.ID, Name: "v", Type: colType}
	require.NoError(t, columnRepo.Create(ctx, column))

	rowRepo := repositories.NewRowRepository()
	cellRepo := repositories.NewCellRepository()
	for _, v := range values {
		row := &models.Row{ProjectID: projectID, TableID: table.ID}
		require.NoError(t, rowRepo.Create(ctx, row))
		require.NoError(t, cellRepo.Upsert(ctx, &models.Cell{
			ProjectID: projectID, RowID: row.ID, ColumnID: column.ID, Value: v,
		}))
	}

	svc := NewTypeMigrationService(columnRepo, cellRepo, repositories.NewTypeChangeAuditRepository(),
		config.TypeMigrationConfig{BatchSize: 2, TxAcquireWaitSeconds: 10, TxTimeoutSeconds: 30, ThroughputCellsPerSecond: 100, AuditLogLimit: 100},
		zap.NewNop())

	return &migrationFixture{ctx: ctx, projectID: projectID, column: column, cellRepo: cellRepo, svc: svc}
}

func (f *migrationFixture) cellValues(t *testing.T) []any {
	t.Helper()
	var values []any
	pager := repositories.NewCellPager(f.cellRepo, f.column.ID, 100)
	for {
		batch, err := pager.Next(f.ctx)
		require.NoError(t, err)
		if batch == nil {
			return values
		}
		for _, c := range batch {
			values = append(values, c.Value)
		}
	}
}

func TestExecuteTypeChange_LossyTruncationAccounting(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeNumber, 1.5, 2.0, 3.7)

	result, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true, AcceptLoss: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 3, result.Stats.Converted)
	assert.Equal(t, 2, result.Stats.Lossy)
	assert.Zero(t, result.Stats.Failed)
	assert.Equal(t, models.ColumnTypeInteger, result.Column.Type)

	values := f.cellValues(t)
	assert.ElementsMatch(t, []any{float64(1), float64(2), float64(3)}, values)
}

func TestExecuteTypeChange_AllOrNothingRollback(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeText, "10", "banana", "30")

	_, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true})
	require.Error(t, err)

	var tcErr *TypeChangeError
	require.ErrorAs(t, err, &tcErr)
	assert.Equal(t, CodeTransactionFailed, tcErr.Code)

	// Nothing changed: the convertible cells were rolled back with the rest.
	column, getErr := repositories.NewColumnRepository().GetByID(f.ctx, f.column.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ColumnTypeText, column.Type)
	assert.ElementsMatch(t, []any{"10", "banana", "30"}, f.cellValues(t))
}

func TestExecuteTypeChange_DeletePolicyRemovesIncompatible(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeText, "10", "banana", "30")

	result, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true, DeleteIncompatible: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Converted)
	assert.Equal(t, 1, result.Stats.Deleted)

	count, err := f.cellRepo.CountByColumn(f.ctx, f.column.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestExecuteTypeChange_NullPolicyKeepsCells(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeText, "10", "banana")

	result, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true, ConvertToNull: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.Converted)
	assert.Equal(t, 1, result.Stats.Nullified)

	count, err := f.cellRepo.CountByColumn(f.ctx, f.column.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "nullified cells are kept")
	assert.Contains(t, f.cellValues(t), nil)
}

func TestExecuteTypeChange_EmptyCellsPassThrough(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeText, nil, "", "5")

	result, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 3, result.Stats.Converted)
	assert.Zero(t, result.Stats.Failed)

	values := f.cellValues(t)
	assert.Contains(t, values, nil)
	assert.Contains(t, values, "")
	assert.Contains(t, values, float64(5))
}

func TestExecuteTypeChange_WritesAuditRecord(t *testing.T) {
	f := newMigrationFixture(t, models.ColumnTypeNumber, 1.0, 2.5)

	_, err := f.svc.ExecuteTypeChange(f.ctx, f.column.ID, models.ColumnTypeInteger,
		models.TypeChangeOptions{Confirmed: true, AcceptLoss: true, UserID: uuid.New()})
	require.NoError(t, err)

	records, err := repositories.NewTypeChangeAuditRepository().ListByColumn(f.ctx, f.column.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ColumnTypeNumber, records[0].OldType)
	assert.Equal(t, models.ColumnTypeInteger, records[0].NewType)
	assert.Equal(t, 1, records[0].Stats.Lossy)
}
