// Package builder is the only place circuit columns are allocated and gates
// and lookups registered. ConstraintSystem holds the result; an
// OpConstraintBuilder gives each execution gadget its vocabulary (cells,
// opcode requirements, stack pops and pushes, side-effect lookups).
package builder

import (
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

// Query reads a column at a row offset relative to the current row.
type Query struct {
	Column   layout.Column
	Rotation int
}

type queryKey struct {
	kind     layout.ColumnKind
	index    int
	rotation int
}

// Gate is a polynomial that must vanish on every row.
type Gate struct {
	Name string
	Poly expr.Expression
}

// Lookup requires the tuple of Inputs, evaluated on every row, to be a row
// of Table.
type Lookup struct {
	Name   string
	Table  tables.ID
	Inputs []expr.Expression
}

type ConstraintSystem struct {
	Field    field.Field
	Advice   []layout.Column
	Fixed    []layout.Column
	Instance []layout.Column
	Gates    []Gate
	Lookups  []Lookup

	// queries[vid-1] is the query of expression variable vid
	queries  []Query
	queryIDs map[queryKey]int
	gateIDs  utils.Map

	tOne constraint.Element
}

func NewConstraintSystem(f field.Field) *ConstraintSystem {
	return &ConstraintSystem{
		Field:    f,
		queryIDs: make(map[queryKey]int),
		gateIDs:  make(utils.Map),
		tOne:     f.One(),
	}
}

// NewColumn allocates a column. Allocation order is the column layout.
func (cs *ConstraintSystem) NewColumn(kind layout.ColumnKind, name string) layout.Column {
	var cols *[]layout.Column
	switch kind {
	case layout.Advice:
		cols = &cs.Advice
	case layout.Fixed:
		cols = &cs.Fixed
	case layout.Instance:
		cols = &cs.Instance
	default:
		panic(fmt.Sprintf("unknown column kind %d", kind))
	}
	c := layout.Column{Kind: kind, Index: len(*cols), Name: name}
	*cols = append(*cols, c)
	return c
}

// NewCell allocates an advice column and returns its cell.
func (cs *ConstraintSystem) NewCell(name string) Cell {
	return Cell{Column: cs.NewColumn(layout.Advice, name), cs: cs}
}

func (cs *ConstraintSystem) Shape() layout.Shape {
	return layout.Shape{Advice: len(cs.Advice), Fixed: len(cs.Fixed), Instance: len(cs.Instance)}
}

// Query returns the expression of col at the given rotation.
func (cs *ConstraintSystem) Query(col layout.Column, rotation int) expr.Expression {
	k := queryKey{kind: col.Kind, index: col.Index, rotation: rotation}
	id, ok := cs.queryIDs[k]
	if !ok {
		cs.queries = append(cs.queries, Query{Column: col, Rotation: rotation})
		id = len(cs.queries)
		cs.queryIDs[k] = id
	}
	return expr.NewLinearExpression(id, cs.tOne)
}

// QueryOf returns the query behind an expression variable id.
func (cs *ConstraintSystem) QueryOf(vid int) Query {
	return cs.queries[vid-1]
}

func (cs *ConstraintSystem) NbQueries() int {
	return len(cs.queries)
}

// AddGate registers poly = 0. Identical gates are kept once.
func (cs *ConstraintSystem) AddGate(name string, poly expr.Expression) {
	poly = expr.Normalize(cs.Field, poly)
	if poly.IsZero() {
		return
	}
	if poly.IsConstant() {
		panic(fmt.Sprintf("gate %s is a nonzero constant", name))
	}
	if _, ok := cs.gateIDs.Find(poly); ok {
		return
	}
	cs.gateIDs.Set(poly, len(cs.Gates))
	cs.Gates = append(cs.Gates, Gate{Name: name, Poly: poly})
}

// AddLookup registers a lookup of inputs into table id.
func (cs *ConstraintSystem) AddLookup(name string, id tables.ID, inputs []expr.Expression) {
	if len(inputs) != id.Arity() {
		panic(fmt.Sprintf("lookup %s has %d inputs, %s takes %d", name, len(inputs), id, id.Arity()))
	}
	in := make([]expr.Expression, len(inputs))
	for i, e := range inputs {
		in[i] = expr.Normalize(cs.Field, e)
	}
	cs.Lookups = append(cs.Lookups, Lookup{Name: name, Table: id, Inputs: in})
}

// Degree is the largest degree of any gate or lookup input.
func (cs *ConstraintSystem) Degree() int {
	d := 0
	for _, g := range cs.Gates {
		if x := g.Poly.Degree(); x > d {
			d = x
		}
	}
	for _, l := range cs.Lookups {
		for _, e := range l.Inputs {
			if x := e.Degree(); x > d {
				d = x
			}
		}
	}
	return d
}

// Const returns the constant expression v, which may be negative.
func (cs *ConstraintSystem) Const(v interface{}) expr.Expression {
	return expr.NewConstantExpression(cs.Field.FromInterface(v))
}

func (cs *ConstraintSystem) One() expr.Expression {
	return expr.NewConstantExpression(cs.tOne)
}

func (cs *ConstraintSystem) Add(es ...expr.Expression) expr.Expression {
	return expr.Add(cs.Field, es...)
}

func (cs *ConstraintSystem) Sub(a, b expr.Expression) expr.Expression {
	return expr.Sub(cs.Field, a, b)
}

func (cs *ConstraintSystem) Mul(es ...expr.Expression) expr.Expression {
	return expr.Mul(cs.Field, es...)
}

// Scale returns c * e for an integer constant c.
func (cs *ConstraintSystem) Scale(e expr.Expression, c interface{}) expr.Expression {
	return expr.Scale(cs.Field, e, cs.Field.FromInterface(c))
}

// Stats summarizes the system for logging.
type Stats struct {
	NbAdvice   int
	NbFixed    int
	NbInstance int
	NbQueries  int
	NbGates    int
	NbLookups  int
	Degree     int
}

func (cs *ConstraintSystem) GetStats() Stats {
	return Stats{
		NbAdvice:   len(cs.Advice),
		NbFixed:    len(cs.Fixed),
		NbInstance: len(cs.Instance),
		NbQueries:  len(cs.queries),
		NbGates:    len(cs.Gates),
		NbLookups:  len(cs.Lookups),
		Degree:     cs.Degree(),
	}
}
