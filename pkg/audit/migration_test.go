package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

func TestLogTypeChange_EmitsStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auditor := NewMigrationAuditor(zap.New(core))

	projectID := uuid.New()
	columnID := uuid.New()
	auditor.LogTypeChange(projectID, TypeChangeDetails{
		ColumnID: columnID,
		OldType:  models.ColumnTypeDecimal,
		NewType:  models.ColumnTypeInteger,
		Stats:    models.TypeChangeStats{Total: 3, Converted: 3, Lossy: 2},
	})

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, string(EventTypeChangeCompleted), fields["event_type"])
	assert.Equal(t, projectID.String(), fields["project_id"])
	assert.Equal(t, columnID.String(), fields["column_id"])
	assert.Equal(t, int64(2), fields["lossy"])
	assert.Equal(t, "migration_audit", entries[0].LoggerName)
}

func TestLogTypeChangeFailure_LogsAtError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auditor := NewMigrationAuditor(zap.New(core))

	auditor.LogTypeChangeFailure(uuid.New(), TypeChangeDetails{
		ColumnID: uuid.New(),
		OldType:  models.ColumnTypeText,
		NewType:  models.ColumnTypeInteger,
		Stats:    models.TypeChangeStats{Failed: 3},
	}, "3 cells failed conversion")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "3 cells failed conversion", entries[0].ContextMap()["reason"])
}
