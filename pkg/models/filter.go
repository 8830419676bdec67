package models

import "github.com/google/uuid"

// FilterOperator identifies a comparison rule applied to cell values during
// query compilation.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "not_contains"
	OpStartsWith  FilterOperator = "starts_with"
	OpEndsWith    FilterOperator = "ends_with"
	OpRegex       FilterOperator = "regex"
	OpGt          FilterOperator = "gt"
	OpGte         FilterOperator = "gte"
	OpLt          FilterOperator = "lt"
	OpLte         FilterOperator = "lte"
	OpBetween     FilterOperator = "between"
	OpNotBetween  FilterOperator = "not_between"
	OpIsEmpty     FilterOperator = "is_empty"
	OpIsNotEmpty  FilterOperator = "is_not_empty"

	// Relative date buckets, resolved against the wall clock at compile time.
	OpToday     FilterOperator = "today"
	OpYesterday FilterOperator = "yesterday"
	OpThisWeek  FilterOperator = "this_week"
	OpLastWeek  FilterOperator = "last_week"
	OpThisMonth FilterOperator = "this_month"
	OpLastMonth FilterOperator = "last_month"
	OpThisYear  FilterOperator = "this_year"
	OpLastYear  FilterOperator = "last_year"
)

// IsEmptiness reports whether op matches on the absence/presence of a value
// rather than on the value itself. Emptiness operators are the only ones
// valid without a filter value.
func (op FilterOperator) IsEmptiness() bool {
	return op == OpIsEmpty || op == OpIsNotEmpty
}

// IsRange reports whether op requires both Value and SecondValue.
func (op FilterOperator) IsRange() bool {
	return op == OpBetween || op == OpNotBetween
}

// IsRelativeDate reports whether op is a calendar bucket (today, this_week,
// last_month, ...).
func (op FilterOperator) IsRelativeDate() bool {
	switch op {
	case OpToday, OpYesterday, OpThisWeek, OpLastWeek, OpThisMonth, OpLastMonth, OpThisYear, OpLastYear:
		return true
	}
	return false
}

// FilterConfig is a caller-supplied, request-scoped filter specification.
// Invalid configs are dropped silently during compilation; they never fail a
// read request.
type FilterConfig struct {
	ColumnID    uuid.UUID      `json:"column_id"`
	ColumnType  ColumnType     `json:"column_type"`
	Operator    FilterOperator `json:"operator"`
	Value       any            `json:"value,omitempty"`
	SecondValue any            `json:"second_value,omitempty"`
}
