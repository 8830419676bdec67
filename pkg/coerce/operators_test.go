package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

func TestLookupOperator_EqualityAcrossTypes(t *testing.T) {
	types := []models.ColumnType{
		models.ColumnTypeText, models.ColumnTypeNumber, models.ColumnTypeBoolean,
		models.ColumnTypeDatetime, models.ColumnTypeTime, models.ColumnTypeJSON,
		models.ColumnTypeReference,
	}
	for _, ct := range types {
		spec, found := LookupOperator(models.OpEquals, ct)
		require.True(t, found, "equals should be defined for %s", ct)
		assert.Equal(t, PredicateEquality, spec.Kind)
		assert.Equal(t, "=", spec.Comparator)

		spec, found = LookupOperator(models.OpNotEquals, ct)
		require.True(t, found)
		assert.Equal(t, "<>", spec.Comparator)
	}
}

func TestLookupOperator_ContainsDivergesOnJSON(t *testing.T) {
	spec, found := LookupOperator(models.OpContains, models.ColumnTypeText)
	require.True(t, found)
	assert.Equal(t, PredicateWildcard, spec.Kind)
	assert.Equal(t, "%alpha%", spec.Transform("alpha"))

	spec, found = LookupOperator(models.OpContains, models.ColumnTypeJSON)
	require.True(t, found)
	assert.Equal(t, PredicateJSONContains, spec.Kind, "JSON contains is structural, not substring")

	spec, found = LookupOperator(models.OpNotContains, models.ColumnTypeText)
	require.True(t, found)
	assert.True(t, spec.Negate)
}

func TestLookupOperator_WildcardTransformsEscapeMetacharacters(t *testing.T) {
	spec, found := LookupOperator(models.OpContains, models.ColumnTypeText)
	require.True(t, found)
	assert.Equal(t, `%50\% off\_now%`, spec.Transform("50% off_now"))

	spec, _ = LookupOperator(models.OpStartsWith, models.ColumnTypeText)
	assert.Equal(t, `ab\\c%`, spec.Transform(`ab\c`))

	spec, _ = LookupOperator(models.OpEndsWith, models.ColumnTypeText)
	assert.Equal(t, "%xyz", spec.Transform("xyz"))
}

func TestLookupOperator_RegexIsTextOnly(t *testing.T) {
	_, found := LookupOperator(models.OpRegex, models.ColumnTypeText)
	assert.True(t, found)

	for _, ct := range []models.ColumnType{models.ColumnTypeNumber, models.ColumnTypeJSON, models.ColumnTypeDatetime} {
		_, found := LookupOperator(models.OpRegex, ct)
		assert.False(t, found, "regex should be undefined for %s", ct)
	}
}

func TestLookupOperator_OrderedComparisons(t *testing.T) {
	ops := map[models.FilterOperator]string{
		models.OpGt: ">", models.OpGte: ">=", models.OpLt: "<", models.OpLte: "<=",
	}
	for op, comparator := range ops {
		for _, ct := range []models.ColumnType{models.ColumnTypeNumber, models.ColumnTypeDatetime, models.ColumnTypeTime} {
			spec, found := LookupOperator(op, ct)
			require.True(t, found, "%s on %s", op, ct)
			assert.Equal(t, PredicateComparison, spec.Kind)
			assert.Equal(t, comparator, spec.Comparator)
		}

		_, found := LookupOperator(op, models.ColumnTypeText)
		assert.False(t, found, "ordered comparison undefined for text")
	}
}

func TestLookupOperator_RangeAndBuckets(t *testing.T) {
	spec, found := LookupOperator(models.OpBetween, models.ColumnTypeNumber)
	require.True(t, found)
	assert.Equal(t, PredicateRange, spec.Kind)
	assert.False(t, spec.Negate)

	spec, found = LookupOperator(models.OpNotBetween, models.ColumnTypeDatetime)
	require.True(t, found)
	assert.True(t, spec.Negate)

	_, found = LookupOperator(models.OpBetween, models.ColumnTypeTime)
	assert.False(t, found, "between undefined for time-of-day")

	buckets := []models.FilterOperator{
		models.OpToday, models.OpYesterday, models.OpThisWeek, models.OpLastWeek,
		models.OpThisMonth, models.OpLastMonth, models.OpThisYear, models.OpLastYear,
	}
	for _, op := range buckets {
		spec, found := LookupOperator(op, models.ColumnTypeDate)
		require.True(t, found, "%s on date", op)
		assert.Equal(t, PredicateDateBucket, spec.Kind)

		_, found = LookupOperator(op, models.ColumnTypeNumber)
		assert.False(t, found, "%s undefined for numbers", op)
	}
}

func TestLookupOperator_EmptinessIsUniversal(t *testing.T) {
	types := []models.ColumnType{
		models.ColumnTypeText, models.ColumnTypeNumber, models.ColumnTypeBoolean,
		models.ColumnTypeDatetime, models.ColumnTypeTime, models.ColumnTypeJSON,
		models.ColumnTypeReference,
	}
	for _, ct := range types {
		spec, found := LookupOperator(models.OpIsEmpty, ct)
		require.True(t, found, "is_empty on %s", ct)
		assert.Equal(t, PredicateEmptiness, spec.Kind)
		assert.False(t, spec.Negate)

		spec, found = LookupOperator(models.OpIsNotEmpty, ct)
		require.True(t, found)
		assert.True(t, spec.Negate)
	}
}

func TestLookupOperator_UnknownPairsAreUndefined(t *testing.T) {
	_, found := LookupOperator(models.FilterOperator("sounds_like"), models.ColumnTypeText)
	assert.False(t, found)

	_, found = LookupOperator(models.OpEquals, models.ColumnType("geometry"))
	assert.False(t, found)

	_, found = LookupOperator(models.OpStartsWith, models.ColumnTypeNumber)
	assert.False(t, found)
}
