// Package query compiles user filter configurations into a composite
// condition tree over the row/cell store, and renders that tree to
// parameterized SQL. Compilation is total: malformed or unsupported filters
// are dropped, never fatal, so a single bad filter cannot take down a read
// path.
package query

import (
	"time"

	"github.com/google/uuid"

	"github.com/gridbase-io/gridbase-engine/pkg/coerce"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// Node is one node of the condition tree.
type Node interface {
	isNode()
}

// And combines child conditions conjunctively. Cross-filter semantics is
// always conjunctive; there is no engine-level OR of filters.
type And struct {
	Children []Node
}

// Or combines child conditions disjunctively. The compiler itself only
// emits AND nodes today, but the tree supports OR so the persistence layer's
// query primitive stays composable.
type Or struct {
	Children []Node
}

// CellExists is an existential join predicate: "the row has at least one
// cell satisfying Predicate". A nil ColumnID means any cell of the row
// qualifies (global search).
type CellExists struct {
	ColumnID  *uuid.UUID
	Predicate Predicate
}

func (And) isNode()        {}
func (Or) isNode()         {}
func (CellExists) isNode() {}

// Predicate is the leaf comparison evaluated against a cell value.
type Predicate struct {
	Kind        coerce.PredicateKind
	Comparator  string
	Negate      bool
	ValueType   models.ColumnType
	Value       any
	SecondValue any

	// Start/End carry the resolved half-open interval for date buckets,
	// start-inclusive and end-exclusive.
	Start *time.Time
	End   *time.Time
}

// Condition is the compiled composite condition: an unconditional table
// scope plus an optional AND-combined tree of search and filter clauses.
type Condition struct {
	TableID uuid.UUID
	Root    Node
}
