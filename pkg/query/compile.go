package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/coerce"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// Compiler turns filter configs and a global search term into a Condition.
// Now is injectable so relative date buckets are testable; it defaults to
// time.Now and is consulted at compile time, never cached across requests.
type Compiler struct {
	Now    func() time.Time
	logger *zap.Logger
}

// NewCompiler creates a Compiler. The logger records dropped filters at
// DEBUG level; pass zap.NewNop() to silence.
func NewCompiler(logger *zap.Logger) *Compiler {
	return &Compiler{
		Now:    time.Now,
		logger: logger.Named("filter-compiler"),
	}
}

// Compile builds the composite condition for a row query. The table scope
// is unconditional; the trimmed global search term and every valid filter
// are AND-combined with it. Compilation never fails: filters that are
// malformed or lack a defined (operator, type) predicate contribute nothing.
func (c *Compiler) Compile(tableID uuid.UUID, search string, filters []models.FilterConfig) *Condition {
	var children []Node

	if term := strings.TrimSpace(search); term != "" {
		children = append(children, CellExists{
			Predicate: Predicate{
				Kind:  coerce.PredicateWildcard,
				Value: "%" + term + "%",
			},
		})
	}

	for _, f := range filters {
		node, compiled := c.compileFilter(f)
		if !compiled {
			c.logger.Debug("Dropped filter",
				zap.String("column_id", f.ColumnID.String()),
				zap.String("operator", string(f.Operator)),
				zap.String("column_type", string(f.ColumnType)))
			continue
		}
		children = append(children, node)
	}

	cond := &Condition{TableID: tableID}
	if len(children) > 0 {
		cond.Root = And{Children: children}
	}
	return cond
}

// compileFilter validates and compiles one filter. The second return is
// false when the filter must be dropped.
func (c *Compiler) compileFilter(f models.FilterConfig) (Node, bool) {
	if f.ColumnID == uuid.Nil || f.Operator == "" || f.ColumnType == "" {
		return nil, false
	}
	if f.Value == nil && !f.Operator.IsEmptiness() && !f.Operator.IsRelativeDate() {
		return nil, false
	}
	if f.Operator.IsRange() && f.SecondValue == nil {
		return nil, false
	}

	spec, supported := coerce.LookupOperator(f.Operator, f.ColumnType)
	if !supported {
		return nil, false
	}

	columnID := f.ColumnID
	pred := Predicate{
		Kind:       spec.Kind,
		Comparator: spec.Comparator,
		Negate:     spec.Negate,
		ValueType:  f.ColumnType,
		Value:      spec.Transform(f.Value),
	}

	switch spec.Kind {
	case coerce.PredicateRange:
		pred.SecondValue = spec.Transform(f.SecondValue)
	case coerce.PredicateDateBucket:
		start, end, resolved := BucketRange(f.Operator, c.Now())
		if !resolved {
			return nil, false
		}
		pred.Start = &start
		pred.End = &end
	}

	return CellExists{ColumnID: &columnID, Predicate: pred}, true
}
