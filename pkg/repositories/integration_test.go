//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/query"
	"github.com/gridbase-io/gridbase-engine/pkg/testhelpers"
)

// testTenant creates a project and returns a context carrying its tenant
// scope. The scope is released at test cleanup.
func testTenant(t *testing.T, db *database.DB) (context.Context, uuid.UUID) {
	t.Helper()
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

	return database.SetTenantScope(ctx, scope), projectID
}

func createTable(t *testing.T, ctx context.Context, projectID uuid.UUID) *models.Table {
	t.Helper()
	table := &models.Table{ProjectID: projectID, Name: "inventory"}
	require.NoError(t, NewTableRepository().Create(ctx, table))
	return table
}

func createColumn(t *testing.T, ctx context.Context, projectID, tableID uuid.UUID, name string, colType models.ColumnType) *models.Column {
	t.Helper()
	column := &models.Column{ProjectID: projectID, TableID: tableID, Name: name, Type: colType}
	require.NoError(t, NewColumnRepository().Create(ctx, column))
	return column
}

func createRowWithCell(t *testing.T, ctx context.Context, projectID, tableID, columnID uuid.UUID, value any) *models.Row {
	t.Helper()
	row := &models.Row{ProjectID: projectID, TableID: tableID}
	require.NoError(t, NewRowRepository().Create(ctx, row))
	if value != nil {
		cell := &models.Cell{ProjectID: projectID, RowID: row.ID, ColumnID: columnID, Value: value}
		require.NoError(t, NewCellRepository().Upsert(ctx, cell))
	}
	return row
}

func TestTableColumnLifecycle(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	require.NotEqual(t, uuid.Nil, table.ID)

	got, err := NewTableRepository().GetByID(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "inventory", got.Name)

	column := createColumn(t, ctx, projectID, table.ID, "price", models.ColumnTypeNumber)

	columns, err := NewColumnRepository().ListByTable(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, column.ID, columns[0].ID)
	assert.Equal(t, models.ColumnTypeNumber, columns[0].Type)
}

func TestCellUpsertReplacesValue(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	column := createColumn(t, ctx, projectID, table.ID, "name", models.ColumnTypeText)
	row := createRowWithCell(t, ctx, projectID, table.ID, column.ID, "first")

	cellRepo := NewCellRepository()
	require.NoError(t, cellRepo.Upsert(ctx, &models.Cell{
		ProjectID: projectID, RowID: row.ID, ColumnID: column.ID, Value: "second",
	}))

	cell, err := cellRepo.GetByRowAndColumn(ctx, row.ID, column.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", cell.Value)

	count, err := cellRepo.CountByColumn(ctx, column.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "upsert must not duplicate the (row, column) pair")
}

func TestCellPagerVisitsEveryCellOnce(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	column := createColumn(t, ctx, projectID, table.ID, "n", models.ColumnTypeNumber)
	for i := 0; i < 7; i++ {
		createRowWithCell(t, ctx, projectID, table.ID, column.ID, float64(i))
	}

	pager := NewCellPager(NewCellRepository(), column.ID, 3)
	seen := make(map[uuid.UUID]bool)
	for {
		batch, err := pager.Next(ctx)
		require.NoError(t, err)
		if batch == nil {
			break
		}
		assert.LessOrEqual(t, len(batch), 3)
		for _, cell := range batch {
			assert.False(t, seen[cell.ID], "cell visited twice")
			seen[cell.ID] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestRowQueryFiltersAndSemantics(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	name := createColumn(t, ctx, projectID, table.ID, "name", models.ColumnTypeText)
	price := createColumn(t, ctx, projectID, table.ID, "price", models.ColumnTypeNumber)

	addRow := func(n string, p float64) *models.Row {
		row := createRowWithCell(t, ctx, projectID, table.ID, name.ID, n)
		require.NoError(t, NewCellRepository().Upsert(ctx, &models.Cell{
			ProjectID: projectID, RowID: row.ID, ColumnID: price.ID, Value: p,
		}))
		return row
	}
	cheapWidget := addRow("widget", 5)
	addRow("widget", 50)
	addRow("gadget", 5)

	compiler := query.NewCompiler(zap.NewNop())
	cond := compiler.Compile(table.ID, "", []models.FilterConfig{
		{ColumnID: name.ID, ColumnType: models.ColumnTypeText, Operator: models.OpEquals, Value: "widget"},
		{ColumnID: price.ID, ColumnType: models.ColumnTypeNumber, Operator: models.OpLt, Value: 10.0},
	})

	rows, err := NewRowRepository().Query(ctx, cond)
	require.NoError(t, err)
	require.Len(t, rows, 1, "filters AND-combine")
	assert.Equal(t, cheapWidget.ID, rows[0].ID)
}

func TestRowQueryGlobalSearch(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	name := createColumn(t, ctx, projectID, table.ID, "name", models.ColumnTypeText)
	match := createRowWithCell(t, ctx, projectID, table.ID, name.ID, "alphabet soup")
	createRowWithCell(t, ctx, projectID, table.ID, name.ID, "plain broth")

	cond := query.NewCompiler(zap.NewNop()).Compile(table.ID, "ALPHA", nil)
	rows, err := NewRowRepository().Query(ctx, cond)
	require.NoError(t, err)
	require.Len(t, rows, 1, "search is case-insensitive substring over any cell")
	assert.Equal(t, match.ID, rows[0].ID)
}

func TestRowQueryEmptinessFilter(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	table := createTable(t, ctx, projectID)
	name := createColumn(t, ctx, projectID, table.ID, "name", models.ColumnTypeText)
	empty := createRowWithCell(t, ctx, projectID, table.ID, name.ID, "")
	nullish := createRowWithCell(t, ctx, projectID, table.ID, name.ID, nil)
	require.NoError(t, NewCellRepository().Upsert(ctx, &models.Cell{
		ProjectID: projectID, RowID: nullish.ID, ColumnID: name.ID, Value: nil,
	}))
	createRowWithCell(t, ctx, projectID, table.ID, name.ID, "filled")

	cond := query.NewCompiler(zap.NewNop()).Compile(table.ID, "", []models.FilterConfig{
		{ColumnID: name.ID, ColumnType: models.ColumnTypeText, Operator: models.OpIsEmpty},
	})
	rows, err := NewRowRepository().Query(ctx, cond)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool)
	for _, r := range rows {
		ids[r.ID] = true
	}
	assert.True(t, ids[empty.ID], "empty string counts as empty")
	assert.True(t, ids[nullish.ID], "SQL NULL counts as empty")
	assert.Len(t, ids, 2)
}

func TestTenantIsolation(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctxA, projectA := testTenant(t, db)
	ctxB, _ := testTenant(t, db)

	table := createTable(t, ctxA, projectA)

	_, err := NewTableRepository().GetByID(ctxB, table.ID)
	assert.Error(t, err, "tenant B must not see tenant A's table")
}

func TestTypeChangeAuditRoundTrip(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx, projectID := testTenant(t, db)

	columnID := uuid.New()
	repo := NewTypeChangeAuditRepository()
	rec := &models.TypeChangeAuditRecord{
		ProjectID: projectID,
		ColumnID:  columnID,
		OldType:   models.ColumnTypeText,
		NewType:   models.ColumnTypeInteger,
		Stats:     models.TypeChangeStats{Total: 3, Converted: 2, Deleted: 1},
		Log: []models.CellConversionLogEntry{
			{CellID: uuid.New(), RowID: uuid.New(), OldValue: "x", Status: models.ConversionDeleted, Error: "cannot convert"},
		},
		UserID:     uuid.New(),
		DurationMS: 42,
	}
	require.NoError(t, repo.Insert(ctx, rec))
	require.NotEqual(t, uuid.Nil, rec.ID)

	records, err := repo.ListByColumn(ctx, columnID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Stats.Converted)
	require.Len(t, records[0].Log, 1)
	assert.Equal(t, models.ConversionDeleted, records[0].Log[0].Status)
}
