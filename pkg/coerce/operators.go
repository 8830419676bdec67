package coerce

import (
	"github.com/gridbase-io/gridbase-engine/pkg/jsonutil"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// PredicateKind names the shape of comparison the persistence layer must
// execute for a filter.
type PredicateKind string

const (
	// PredicateEquality compares the whole cell value for (in)equality.
	PredicateEquality PredicateKind = "equality"
	// PredicateWildcard is a case-insensitive textual match against a
	// pattern produced by the operator's value transform.
	PredicateWildcard PredicateKind = "wildcard"
	// PredicateRegex matches the cell text against a regular expression.
	PredicateRegex PredicateKind = "regex"
	// PredicateComparison is an ordered comparison (>, >=, <, <=).
	PredicateComparison PredicateKind = "comparison"
	// PredicateRange is a two-ended range (between / not_between).
	PredicateRange PredicateKind = "range"
	// PredicateEmptiness matches null, JSON-null and empty-string cells.
	PredicateEmptiness PredicateKind = "emptiness"
	// PredicateDateBucket is a calendar-aligned, end-exclusive time range
	// resolved at compile time.
	PredicateDateBucket PredicateKind = "date_bucket"
	// PredicateJSONContains is structural containment for JSON columns.
	// This deliberately diverges from the substring semantics every other
	// type gives "contains".
	PredicateJSONContains PredicateKind = "json_contains"
)

// OperatorSpec describes how one (operator, column type) pair executes: the
// predicate kind, the SQL comparator where ordering matters, negation, and
// the canonical comparison-value transform.
type OperatorSpec struct {
	Kind       PredicateKind
	Comparator string
	Negate     bool
	Transform  func(any) any
}

// typeFamily collapses the column type enumeration into the families the
// operator table dispatches on.
type typeFamily int

const (
	familyText typeFamily = iota
	familyNumeric
	familyBoolean
	familyTemporal
	familyTimeOfDay
	familyJSON
	familyReference
	familyUnknown
)

func familyOf(t models.ColumnType) typeFamily {
	switch {
	case t.IsTextual():
		return familyText
	case t.IsNumeric():
		return familyNumeric
	case t == models.ColumnTypeBoolean:
		return familyBoolean
	case t.IsTemporal():
		return familyTemporal
	case t == models.ColumnTypeTime:
		return familyTimeOfDay
	case t == models.ColumnTypeJSON:
		return familyJSON
	case t == models.ColumnTypeReference:
		return familyReference
	default:
		return familyUnknown
	}
}

func identity(v any) any { return v }

func wildcardContains(v any) any { return "%" + escapeLike(jsonutil.Stringify(v)) + "%" }
func wildcardPrefix(v any) any   { return escapeLike(jsonutil.Stringify(v)) + "%" }
func wildcardSuffix(v any) any   { return "%" + escapeLike(jsonutil.Stringify(v)) }

// escapeLike neutralizes LIKE metacharacters in user-supplied match values.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// operatorTable is the single source of truth for operator semantics. A
// missing entry means the (operator, type) pair is undefined and the filter
// is dropped by the compiler; adding an operator or family is a one-place
// change here.
var operatorTable = map[models.FilterOperator]map[typeFamily]OperatorSpec{
	models.OpEquals: {
		familyText:      {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyNumeric:   {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyBoolean:   {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyTemporal:  {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyTimeOfDay: {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyJSON:      {Kind: PredicateEquality, Comparator: "=", Transform: identity},
		familyReference: {Kind: PredicateEquality, Comparator: "=", Transform: identity},
	},
	models.OpNotEquals: {
		familyText:      {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyNumeric:   {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyBoolean:   {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyTemporal:  {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyTimeOfDay: {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyJSON:      {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
		familyReference: {Kind: PredicateEquality, Comparator: "<>", Transform: identity},
	},
	models.OpContains: {
		familyText:      {Kind: PredicateWildcard, Transform: wildcardContains},
		familyReference: {Kind: PredicateWildcard, Transform: wildcardContains},
		familyJSON:      {Kind: PredicateJSONContains, Transform: identity},
	},
	models.OpNotContains: {
		familyText:      {Kind: PredicateWildcard, Negate: true, Transform: wildcardContains},
		familyReference: {Kind: PredicateWildcard, Negate: true, Transform: wildcardContains},
		familyJSON:      {Kind: PredicateJSONContains, Negate: true, Transform: identity},
	},
	models.OpStartsWith: {
		familyText:      {Kind: PredicateWildcard, Transform: wildcardPrefix},
		familyReference: {Kind: PredicateWildcard, Transform: wildcardPrefix},
	},
	models.OpEndsWith: {
		familyText:      {Kind: PredicateWildcard, Transform: wildcardSuffix},
		familyReference: {Kind: PredicateWildcard, Transform: wildcardSuffix},
	},
	models.OpRegex: {
		familyText: {Kind: PredicateRegex, Transform: identity},
	},
	models.OpGt:  comparisonRow(">"),
	models.OpGte: comparisonRow(">="),
	models.OpLt:  comparisonRow("<"),
	models.OpLte: comparisonRow("<="),
	models.OpBetween: {
		familyNumeric:  {Kind: PredicateRange, Transform: identity},
		familyTemporal: {Kind: PredicateRange, Transform: identity},
	},
	models.OpNotBetween: {
		familyNumeric:  {Kind: PredicateRange, Negate: true, Transform: identity},
		familyTemporal: {Kind: PredicateRange, Negate: true, Transform: identity},
	},
	models.OpIsEmpty:    emptinessRow(false),
	models.OpIsNotEmpty: emptinessRow(true),

	models.OpToday:     dateBucketRow(),
	models.OpYesterday: dateBucketRow(),
	models.OpThisWeek:  dateBucketRow(),
	models.OpLastWeek:  dateBucketRow(),
	models.OpThisMonth: dateBucketRow(),
	models.OpLastMonth: dateBucketRow(),
	models.OpThisYear:  dateBucketRow(),
	models.OpLastYear:  dateBucketRow(),
}

func comparisonRow(comparator string) map[typeFamily]OperatorSpec {
	return map[typeFamily]OperatorSpec{
		familyNumeric:   {Kind: PredicateComparison, Comparator: comparator, Transform: identity},
		familyTemporal:  {Kind: PredicateComparison, Comparator: comparator, Transform: identity},
		familyTimeOfDay: {Kind: PredicateComparison, Comparator: comparator, Transform: identity},
	}
}

func emptinessRow(negate bool) map[typeFamily]OperatorSpec {
	row := make(map[typeFamily]OperatorSpec, 7)
	for _, fam := range []typeFamily{familyText, familyNumeric, familyBoolean, familyTemporal, familyTimeOfDay, familyJSON, familyReference} {
		row[fam] = OperatorSpec{Kind: PredicateEmptiness, Negate: negate, Transform: identity}
	}
	return row
}

func dateBucketRow() map[typeFamily]OperatorSpec {
	return map[typeFamily]OperatorSpec{
		familyTemporal: {Kind: PredicateDateBucket, Transform: identity},
	}
}

// LookupOperator resolves the predicate spec for an (operator, column type)
// pair. The second return is false when the pair is undefined; callers drop
// the filter rather than erroring.
func LookupOperator(op models.FilterOperator, t models.ColumnType) (OperatorSpec, bool) {
	row, found := operatorTable[op]
	if !found {
		return OperatorSpec{}, false
	}
	spec, found := row[familyOf(t)]
	return spec, found
}
