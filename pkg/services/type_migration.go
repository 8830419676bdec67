package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/audit"
	"github.com/gridbase-io/gridbase-engine/pkg/coerce"
	"github.com/gridbase-io/gridbase-engine/pkg/config"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/logging"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/repositories"
	"github.com/gridbase-io/gridbase-engine/pkg/retry"
)

// CodeTransactionFailed is the error code surfaced when a migration rolls
// back, whatever the underlying cause.
const CodeTransactionFailed = "TRANSACTION_FAILED"

// TypeChangeError is the terminal error of a failed migration. It carries
// enough context for the caller to explain the failure, not just report it.
type TypeChangeError struct {
	Code    string
	Message string
	Details error
}

func (e *TypeChangeError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TypeChangeError) Unwrap() error {
	return e.Details
}

// TypeMigrationService executes, analyzes, validates, and estimates column
// type changes.
type TypeMigrationService interface {
	// ExecuteTypeChange reclassifies a column's declared type and rewrites
	// every cell under it inside one atomic transaction. Either the column
	// type and all cells land in a terminal valid state together, or
	// nothing changes.
	ExecuteTypeChange(ctx context.Context, columnID uuid.UUID, newType models.ColumnType, opts models.TypeChangeOptions) (*models.TypeChangeResult, error)

	// AnalyzeTypeChange dry-runs the conversion over every cell of the
	// column and predicts per-outcome counts. Read-only.
	AnalyzeTypeChange(ctx context.Context, columnID uuid.UUID, newType models.ColumnType) (*models.TypeChangeAnalysis, error)

	// ValidateTypeChangeOptions checks the caller's policy against an
	// analyzer prediction. Pure reporting: it neither mutates state nor
	// blocks execution by itself.
	ValidateTypeChangeOptions(analysis *models.TypeChangeAnalysis, opts models.TypeChangeOptions) models.ValidationResult

	// EstimateTypeChangeDuration produces a human-readable duration
	// estimate for progress display. Never used for timeout enforcement.
	EstimateTypeChangeDuration(cellCount int64) models.DurationEstimate
}

type typeMigrationService struct {
	columnRepo repositories.ColumnRepository
	cellRepo   repositories.CellRepository
	auditRepo  repositories.TypeChangeAuditRepository
	auditor    *audit.MigrationAuditor
	cfg        config.TypeMigrationConfig
	logger     *zap.Logger
}

// NewTypeMigrationService creates a new TypeMigrationService.
func NewTypeMigrationService(
	columnRepo repositories.ColumnRepository,
	cellRepo repositories.CellRepository,
	auditRepo repositories.TypeChangeAuditRepository,
	cfg config.TypeMigrationConfig,
	logger *zap.Logger,
) TypeMigrationService {
	return &typeMigrationService{
		columnRepo: columnRepo,
		cellRepo:   cellRepo,
		auditRepo:  auditRepo,
		auditor:    audit.NewMigrationAuditor(logger),
		cfg:        cfg,
		logger:     logger.Named("type-migration-service"),
	}
}

var _ TypeMigrationService = (*typeMigrationService)(nil)

func (s *typeMigrationService) ExecuteTypeChange(ctx context.Context, columnID uuid.UUID, newType models.ColumnType, opts models.TypeChangeOptions) (*models.TypeChangeResult, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, &TypeChangeError{Code: CodeTransactionFailed, Message: "no tenant scope in context"}
	}
	if !newType.IsValid() {
		return nil, &TypeChangeError{Code: CodeTransactionFailed, Message: fmt.Sprintf("invalid target type %q", newType)}
	}

	started := time.Now()

	// Bounded acquisition wait, then a separate bound on execution. A
	// timeout rolls the transaction back; it never truncates the migration.
	beginCtx, cancelBegin := context.WithTimeout(ctx, s.cfg.AcquireWait())
	tx, err := scope.Conn.Begin(beginCtx)
	cancelBegin()
	if err != nil {
		return nil, &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to begin transaction", Details: err}
	}

	execCtx, cancelExec := context.WithTimeout(ctx, s.cfg.TxTimeout())
	defer cancelExec()

	result, runErr := s.runMigration(execCtx, columnID, newType, opts)
	if runErr != nil {
		_ = tx.Rollback(ctx)
		s.auditor.LogTypeChangeFailure(projectIDOf(result), audit.TypeChangeDetails{
			ColumnID: columnID,
			NewType:  newType,
			Stats:    statsOf(result),
			UserID:   opts.UserID,
		}, runErr.Error())
		return nil, runErr
	}

	if err := tx.Commit(execCtx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to commit transaction", Details: err}
	}

	result.DurationMS = time.Since(started).Milliseconds()

	s.writeAuditRecord(ctx, result, newType, opts)
	s.auditor.LogTypeChange(result.Column.ProjectID, audit.TypeChangeDetails{
		ColumnID:   columnID,
		OldType:    result.oldType,
		NewType:    newType,
		Stats:      result.Stats,
		DurationMS: result.DurationMS,
		UserID:     opts.UserID,
	})

	return &result.TypeChangeResult, nil
}

// migrationResult pairs the public result with the pre-change type, which
// only the audit trail needs.
type migrationResult struct {
	models.TypeChangeResult
	oldType models.ColumnType
}

// runMigration performs steps 1-5 of the migration inside the ambient
// transaction: load column, rewrite cells batch by batch, verify no cell
// was left unhandled, then commit the new declared type.
func (s *typeMigrationService) runMigration(ctx context.Context, columnID uuid.UUID, newType models.ColumnType, opts models.TypeChangeOptions) (*migrationResult, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return nil, &TypeChangeError{Code: CodeTransactionFailed, Message: "column not found", Details: err}
	}

	result := &migrationResult{oldType: column.Type}
	pager := repositories.NewCellPager(s.cellRepo, columnID, s.cfg.BatchSize)

	for {
		batch, err := pager.Next(ctx)
		if err != nil {
			return result, &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to enumerate cells", Details: err}
		}
		if batch == nil {
			break
		}

		for _, cell := range batch {
			if err := s.migrateCell(ctx, cell, newType, opts, result); err != nil {
				return result, err
			}
		}
	}

	if result.Stats.Failed > 0 {
		return result, &TypeChangeError{
			Code: CodeTransactionFailed,
			Message: fmt.Sprintf("%d cells failed conversion and no handling strategy was specified",
				result.Stats.Failed),
		}
	}

	if err := s.columnRepo.UpdateType(ctx, columnID, newType); err != nil {
		return result, &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to update column type", Details: err}
	}

	column.Type = newType
	result.Column = column
	return result, nil
}

// migrateCell applies the per-cell decision ladder, in strict priority
// order, and records the outcome.
func (s *typeMigrationService) migrateCell(ctx context.Context, cell *models.Cell, newType models.ColumnType, opts models.TypeChangeOptions, result *migrationResult) error {
	result.Stats.Total++

	disposition := dispositionCell(cell, newType, opts)

	switch disposition.action {
	case cellActionNone:
		// Null/empty cells pass through untouched and count as converted.
		result.Stats.Converted++
		return nil

	case cellActionUpdate, cellActionUpdateLossy:
		if err := s.cellRepo.UpdateValue(ctx, cell.ID, disposition.newValue); err != nil {
			return &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to rewrite cell", Details: err}
		}
		result.Stats.Converted++
		if disposition.action == cellActionUpdateLossy {
			result.Stats.Lossy++
			result.Log = append(result.Log, disposition.logEntry)
		}
		return nil

	case cellActionDelete:
		if err := s.cellRepo.Delete(ctx, cell.ID); err != nil {
			return &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to delete incompatible cell", Details: err}
		}
		result.Stats.Deleted++
		result.Log = append(result.Log, disposition.logEntry)
		return nil

	case cellActionNullify:
		if err := s.cellRepo.UpdateValue(ctx, cell.ID, nil); err != nil {
			return &TypeChangeError{Code: CodeTransactionFailed, Message: "failed to nullify incompatible cell", Details: err}
		}
		result.Stats.Nullified++
		result.Log = append(result.Log, disposition.logEntry)
		return nil

	default: // cellActionFail
		// Reachable only when pre-flight validation was skipped or stale;
		// the post-loop check turns any of these into a full rollback.
		result.Stats.Failed++
		result.Log = append(result.Log, disposition.logEntry)
		return nil
	}
}

type cellAction int

const (
	cellActionNone cellAction = iota
	cellActionUpdate
	cellActionUpdateLossy
	cellActionDelete
	cellActionNullify
	cellActionFail
)

type cellDisposition struct {
	action   cellAction
	newValue any
	logEntry models.CellConversionLogEntry
}

// dispositionCell decides one cell's fate without touching storage. The
// ladder is strict: empty passthrough, then clean conversion, then lossy
// conversion, then the caller's failure policy, with delete taking
// precedence over nullify when both flags are set.
func dispositionCell(cell *models.Cell, newType models.ColumnType, opts models.TypeChangeOptions) cellDisposition {
	if cell.IsEmpty() {
		return cellDisposition{action: cellActionNone}
	}

	res := coerce.Coerce(cell.Value, newType)

	if res.Success {
		entry := models.CellConversionLogEntry{
			CellID:   cell.ID,
			RowID:    cell.RowID,
			OldValue: cell.Value,
			NewValue: res.NewValue,
			Status:   models.ConversionSuccess,
		}
		if res.DataLoss {
			entry.Status = models.ConversionLossy
			entry.Warning = res.Warning
			return cellDisposition{action: cellActionUpdateLossy, newValue: res.NewValue, logEntry: entry}
		}
		return cellDisposition{action: cellActionUpdate, newValue: res.NewValue, logEntry: entry}
	}

	entry := models.CellConversionLogEntry{
		CellID:   cell.ID,
		RowID:    cell.RowID,
		OldValue: cell.Value,
		Error:    res.Error,
	}

	switch {
	case opts.DeleteIncompatible:
		entry.Status = models.ConversionDeleted
		return cellDisposition{action: cellActionDelete, logEntry: entry}
	case opts.ConvertToNull:
		entry.Status = models.ConversionNullified
		return cellDisposition{action: cellActionNullify, logEntry: entry}
	default:
		entry.Status = models.ConversionFailed
		return cellDisposition{action: cellActionFail, logEntry: entry}
	}
}

// writeAuditRecord persists the migration audit trail. Best-effort with a
// short retry; an audit write failure never fails the migration.
func (s *typeMigrationService) writeAuditRecord(ctx context.Context, result *migrationResult, newType models.ColumnType, opts models.TypeChangeOptions) {
	logEntries := result.Log
	if len(logEntries) > s.cfg.AuditLogLimit {
		logEntries = logEntries[:s.cfg.AuditLogLimit]
	}

	rec := &models.TypeChangeAuditRecord{
		ProjectID:  result.Column.ProjectID,
		ColumnID:   result.Column.ID,
		OldType:    result.oldType,
		NewType:    newType,
		Stats:      result.Stats,
		Log:        logEntries,
		UserID:     opts.UserID,
		DurationMS: result.DurationMS,
	}

	auditRetry := &retry.Config{MaxRetries: 2, InitialDelay: 50 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Multiplier: 2.0}
	if err := retry.Do(ctx, auditRetry, func() error {
		return s.auditRepo.Insert(ctx, rec)
	}); err != nil {
		s.logger.Warn("Failed to persist type change audit record",
			zap.String("column_id", result.Column.ID.String()),
			zap.String("error", logging.SanitizeError(err)))
	}
}

func (s *typeMigrationService) AnalyzeTypeChange(ctx context.Context, columnID uuid.UUID, newType models.ColumnType) (*models.TypeChangeAnalysis, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if !newType.IsValid() {
		return nil, fmt.Errorf("invalid target type %q", newType)
	}

	analysis := &models.TypeChangeAnalysis{
		ColumnID:    columnID,
		CurrentType: column.Type,
		TargetType:  newType,
	}

	const maxSampleErrors = 10
	pager := repositories.NewCellPager(s.cellRepo, columnID, s.cfg.BatchSize)
	for {
		batch, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate cells: %w", err)
		}
		if batch == nil {
			break
		}

		for _, cell := range batch {
			analysis.Total++
			if cell.IsEmpty() {
				analysis.WillConvert++
				continue
			}

			res := coerce.Coerce(cell.Value, newType)
			switch {
			case res.Success && res.DataLoss:
				analysis.WillConvert++
				analysis.WillLoseData++
			case res.Success:
				analysis.WillConvert++
			default:
				analysis.WillFail++
				if len(analysis.SampleErrors) < maxSampleErrors {
					analysis.SampleErrors = append(analysis.SampleErrors,
						logging.TruncateString(res.Error, logging.MaxValueLogLength))
				}
			}
		}
	}

	return analysis, nil
}

func (s *typeMigrationService) ValidateTypeChangeOptions(analysis *models.TypeChangeAnalysis, opts models.TypeChangeOptions) models.ValidationResult {
	var errs []string

	if analysis != nil && analysis.WillFail > 0 {
		switch {
		case !opts.DeleteIncompatible && !opts.ConvertToNull:
			errs = append(errs, fmt.Sprintf(
				"%d cells will fail conversion: choose to delete incompatible cells or convert them to null",
				analysis.WillFail))
		case opts.DeleteIncompatible && opts.ConvertToNull:
			errs = append(errs, "choose exactly one strategy for incompatible cells, not both")
		}
	}

	if analysis != nil && analysis.WillLoseData > 0 && !opts.AcceptLoss {
		errs = append(errs, fmt.Sprintf(
			"%d cells will lose precision: accept_loss must be set", analysis.WillLoseData))
	}

	if !opts.Confirmed {
		errs = append(errs, "type change must be confirmed")
	}

	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (s *typeMigrationService) EstimateTypeChangeDuration(cellCount int64) models.DurationEstimate {
	throughput := int64(s.cfg.ThroughputCellsPerSecond)
	if throughput <= 0 {
		throughput = 100
	}

	seconds := (cellCount + throughput - 1) / throughput

	var display string
	switch {
	case cellCount == 0 || seconds == 0:
		seconds = 0
		display = "less than a second"
	case seconds == 1:
		display = "about 1 second"
	case seconds < 60:
		display = fmt.Sprintf("about %d seconds", seconds)
	default:
		minutes := (seconds + 59) / 60
		if minutes == 1 {
			display = "about 1 minute"
		} else {
			display = fmt.Sprintf("about %d minutes", minutes)
		}
	}

	return models.DurationEstimate{Seconds: seconds, DisplayText: display}
}

// projectIDOf and statsOf tolerate nil results on the failure path.
func projectIDOf(result *migrationResult) uuid.UUID {
	if result == nil || result.Column == nil {
		return uuid.Nil
	}
	return result.Column.ProjectID
}

func statsOf(result *migrationResult) models.TypeChangeStats {
	if result == nil {
		return models.TypeChangeStats{}
	}
	return result.Stats
}
