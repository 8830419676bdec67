package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnType_IsValid(t *testing.T) {
	valid := []ColumnType{
		ColumnTypeText, ColumnTypeString, ColumnTypeEmail, ColumnTypeURL,
		ColumnTypeCustomArray, ColumnTypeNumber, ColumnTypeInteger,
		ColumnTypeDecimal, ColumnTypeBoolean, ColumnTypeDate,
		ColumnTypeDatetime, ColumnTypeTime, ColumnTypeJSON, ColumnTypeReference,
	}
	for _, ct := range valid {
		assert.True(t, ct.IsValid(), "%s", ct)
	}

	for _, ct := range []ColumnType{"", "geometry", "TEXT", "int"} {
		assert.False(t, ct.IsValid(), "%q", ct)
	}
}

func TestColumnType_Families(t *testing.T) {
	assert.True(t, ColumnTypeEmail.IsTextual())
	assert.True(t, ColumnTypeCustomArray.IsTextual())
	assert.False(t, ColumnTypeJSON.IsTextual())

	assert.True(t, ColumnTypeDecimal.IsNumeric())
	assert.False(t, ColumnTypeBoolean.IsNumeric())

	assert.True(t, ColumnTypeDate.IsTemporal())
	assert.True(t, ColumnTypeDatetime.IsTemporal())
	assert.False(t, ColumnTypeTime.IsTemporal(), "time-of-day is not an instant")
}

func TestFilterOperator_Predicates(t *testing.T) {
	assert.True(t, OpIsEmpty.IsEmptiness())
	assert.True(t, OpIsNotEmpty.IsEmptiness())
	assert.False(t, OpEquals.IsEmptiness())

	assert.True(t, OpBetween.IsRange())
	assert.True(t, OpNotBetween.IsRange())
	assert.False(t, OpGt.IsRange())

	for _, op := range []FilterOperator{OpToday, OpYesterday, OpThisWeek, OpLastWeek, OpThisMonth, OpLastMonth, OpThisYear, OpLastYear} {
		assert.True(t, op.IsRelativeDate(), "%s", op)
	}
	assert.False(t, OpIsEmpty.IsRelativeDate())
}

func TestCell_IsEmpty(t *testing.T) {
	assert.True(t, (&Cell{Value: nil}).IsEmpty())
	assert.True(t, (&Cell{Value: ""}).IsEmpty())
	assert.False(t, (&Cell{Value: "x"}).IsEmpty())
	assert.False(t, (&Cell{Value: 0.0}).IsEmpty())
	assert.False(t, (&Cell{Value: false}).IsEmpty())
	assert.False(t, (&Cell{Value: []any{}}).IsEmpty())
}
