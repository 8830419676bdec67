package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrTableNotFound  = errors.New("table not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrRowNotFound    = errors.New("row not found")
	ErrCellNotFound   = errors.New("cell not found")
	ErrConflict       = errors.New("conflict")
	ErrNoTenantScope  = errors.New("no tenant scope in context")
	ErrInvalidType    = errors.New("invalid column type")
)
