package query

import (
	"fmt"
	"strings"

	"github.com/gridbase-io/gridbase-engine/pkg/coerce"
	"github.com/gridbase-io/gridbase-engine/pkg/jsonutil"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// cellText extracts the scalar text of a JSONB cell value. String cells
// yield their contents without quotes; other scalars yield their JSON text.
const cellText = "(c.value #>> '{}')"

// BuildRowQuery renders a compiled condition to a parameterized SELECT over
// engine_rows. Every filter clause is an EXISTS subquery against
// engine_cells, so filters stay composable existential join predicates.
func BuildRowQuery(cond *Condition) (string, []any) {
	b := &sqlBuilder{}

	var sb strings.Builder
	sb.WriteString("SELECT r.id, r.project_id, r.table_id, r.created_at, r.updated_at\n")
	sb.WriteString("FROM engine_rows r\n")
	sb.WriteString("WHERE r.table_id = ")
	sb.WriteString(b.bind(cond.TableID))

	if cond.Root != nil {
		sb.WriteString("\n  AND ")
		sb.WriteString(b.renderNode(cond.Root))
	}

	sb.WriteString("\nORDER BY r.created_at, r.id")
	return sb.String(), b.args
}

type sqlBuilder struct {
	args []any
}

// bind appends an argument and returns its placeholder.
func (b *sqlBuilder) bind(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) renderNode(node Node) string {
	switch n := node.(type) {
	case And:
		return b.renderChildren(n.Children, " AND ")
	case Or:
		return b.renderChildren(n.Children, " OR ")
	case CellExists:
		return b.renderCellExists(n)
	default:
		// The node set is closed; an unknown node renders as a no-op.
		return "TRUE"
	}
}

func (b *sqlBuilder) renderChildren(children []Node, sep string) string {
	if len(children) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = b.renderNode(child)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (b *sqlBuilder) renderCellExists(n CellExists) string {
	var sb strings.Builder
	sb.WriteString("EXISTS (SELECT 1 FROM engine_cells c WHERE c.row_id = r.id")
	if n.ColumnID != nil {
		sb.WriteString(" AND c.column_id = ")
		sb.WriteString(b.bind(*n.ColumnID))
	}
	sb.WriteString(" AND ")
	sb.WriteString(b.renderPredicate(n))
	sb.WriteString(")")
	return sb.String()
}

func (b *sqlBuilder) renderPredicate(n CellExists) string {
	p := n.Predicate

	switch p.Kind {
	case coerce.PredicateEquality:
		return b.renderEquality(p)

	case coerce.PredicateWildcard:
		var clause string
		if n.ColumnID == nil {
			// Global search matches the raw JSON text of any cell.
			clause = "c.value::text ILIKE " + b.bind(jsonutil.Stringify(p.Value))
		} else {
			clause = cellText + " ILIKE " + b.bind(jsonutil.Stringify(p.Value))
		}
		return negate(clause, p.Negate)

	case coerce.PredicateRegex:
		return cellText + " ~ " + b.bind(jsonutil.Stringify(p.Value))

	case coerce.PredicateComparison:
		return fmt.Sprintf("%s %s %s", b.castCell(p.ValueType), p.Comparator, b.bindTyped(p.ValueType, p.Value))

	case coerce.PredicateRange:
		cast := b.castCell(p.ValueType)
		clause := fmt.Sprintf("%s >= %s AND %s <= %s",
			cast, b.bindTyped(p.ValueType, p.Value),
			cast, b.bindTyped(p.ValueType, p.SecondValue))
		return negate("("+clause+")", p.Negate)

	case coerce.PredicateEmptiness:
		clause := `(c.value IS NULL OR c.value = 'null'::jsonb OR c.value = '""'::jsonb)`
		return negate(clause, p.Negate)

	case coerce.PredicateDateBucket:
		cast := b.castCell(p.ValueType)
		return fmt.Sprintf("%s >= %s AND %s < %s",
			cast, b.bind(*p.Start), cast, b.bind(*p.End))

	case coerce.PredicateJSONContains:
		payload, err := jsonutil.Encode(p.Value)
		if err != nil {
			return "FALSE"
		}
		return negate("c.value @> "+b.bind(string(payload))+"::jsonb", p.Negate)

	default:
		return "FALSE"
	}
}

func (b *sqlBuilder) renderEquality(p Predicate) string {
	switch {
	case p.ValueType.IsNumeric():
		return fmt.Sprintf("%s %s %s", b.castCell(p.ValueType), p.Comparator, b.bindTyped(p.ValueType, p.Value))
	case p.ValueType == models.ColumnTypeBoolean:
		return fmt.Sprintf("(%s)::boolean %s %s", cellText, p.Comparator, b.bind(p.Value))
	case p.ValueType.IsTemporal():
		return fmt.Sprintf("%s %s %s", b.castCell(p.ValueType), p.Comparator, b.bindTyped(p.ValueType, p.Value))
	case p.ValueType == models.ColumnTypeJSON:
		payload, err := jsonutil.Encode(p.Value)
		if err != nil {
			return "FALSE"
		}
		return fmt.Sprintf("c.value %s %s::jsonb", p.Comparator, b.bind(string(payload)))
	default:
		return fmt.Sprintf("%s %s %s", cellText, p.Comparator, b.bind(jsonutil.Stringify(p.Value)))
	}
}

// castCell renders the typed projection of the cell value for ordered
// comparisons. Time-of-day strings compare lexicographically, which is
// correct for zero-padded 24-hour HH:MM:SS.
func (b *sqlBuilder) castCell(t models.ColumnType) string {
	switch {
	case t.IsNumeric():
		return "(" + cellText + ")::numeric"
	case t.IsTemporal():
		return "(" + cellText + ")::timestamptz"
	default:
		return cellText
	}
}

// bindTyped binds a comparison value in the representation the cast side of
// the clause expects.
func (b *sqlBuilder) bindTyped(t models.ColumnType, v any) string {
	switch {
	case t.IsNumeric():
		return "(" + b.bind(jsonutil.Stringify(v)) + ")::numeric"
	case t.IsTemporal():
		return "(" + b.bind(jsonutil.Stringify(v)) + ")::timestamptz"
	default:
		return b.bind(jsonutil.Stringify(v))
	}
}

func negate(clause string, neg bool) string {
	if neg {
		return "NOT " + clause
	}
	return clause
}
