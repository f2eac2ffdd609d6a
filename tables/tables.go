// Package tables holds the lookup tables gadgets look tuples up in: the
// computed range and byte tables, and the table/global state tables filled
// per witness by a Session: table and global accesses, and the stack
// values a step brings into view from below the window.
package tables

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
)

type ID uint8

const (
	Range8 ID = iota
	Range16
	ByteOps
	TableOps
	GlobalOps
	StackOps

	numTables
)

// MaxArity is the widest tuple of any table.
const MaxArity = 6

func (id ID) String() string {
	switch id {
	case Range8:
		return "range8"
	case Range16:
		return "range16"
	case ByteOps:
		return "byte_ops"
	case TableOps:
		return "table_ops"
	case GlobalOps:
		return "global_ops"
	case StackOps:
		return "stack_ops"
	}
	return fmt.Sprintf("table(%d)", uint8(id))
}

// Arity is the tuple width of the table.
func (id ID) Arity() int {
	switch id {
	case Range8, Range16:
		return 1
	case ByteOps, GlobalOps:
		return 4
	case TableOps:
		return 6
	case StackOps:
		return 3
	}
	panic(fmt.Sprintf("unknown table %d", uint8(id)))
}

// Dynamic tables are derived from the trace by a Session, the others are
// computed once.
func (id ID) Dynamic() bool {
	return id == TableOps || id == GlobalOps || id == StackOps
}

// DynamicIDs lists the tables a Session fills.
func DynamicIDs() []ID {
	return []ID{TableOps, GlobalOps, StackOps}
}

func AllIDs() []ID {
	res := make([]ID, numTables)
	for i := range res {
		res[i] = ID(i)
	}
	return res
}

// Table answers tuple membership. The all-zero tuple is in every table so
// that lookups scaled by an inactive selector hold.
type Table interface {
	ID() ID
	Contains(f field.Field, tuple []constraint.Element) bool
}

// ByteOp selects a row family of the ByteOps table (op, a, b, c).
type ByteOp uint64

const (
	ByteAnd ByteOp = iota + 1
	ByteOr
	ByteXor
	// BytePopcnt rows are (op, a, 0, popcnt(a)).
	BytePopcnt
	// ByteMsb rows are (op, a, 0, a>>7).
	ByteMsb
)

// Unary ops ignore b.
func (op ByteOp) Unary() bool {
	return op == BytePopcnt || op == ByteMsb
}

func (op ByteOp) Apply(a, b uint8) uint8 {
	switch op {
	case ByteAnd:
		return a & b
	case ByteOr:
		return a | b
	case ByteXor:
		return a ^ b
	case BytePopcnt:
		return uint8(bits.OnesCount8(a))
	case ByteMsb:
		return a >> 7
	}
	panic(fmt.Sprintf("unknown byte op %d", uint64(op)))
}

func toU64s(f field.Field, tuple []constraint.Element) ([]uint64, bool) {
	res := make([]uint64, len(tuple))
	for i, e := range tuple {
		v, err := field.ToU64(f, e)
		if err != nil {
			return nil, false
		}
		res[i] = v
	}
	return res, true
}

func allZero(tuple []constraint.Element) bool {
	for _, e := range tuple {
		if !e.IsZero() {
			return false
		}
	}
	return true
}

type rangeTable struct {
	id   ID
	bits uint
}

func (t rangeTable) ID() ID {
	return t.id
}

func (t rangeTable) Contains(f field.Field, tuple []constraint.Element) bool {
	if len(tuple) != 1 {
		return false
	}
	v, ok := toU64s(f, tuple)
	return ok && v[0] < 1<<t.bits
}

type byteOpsTable struct{}

func (byteOpsTable) ID() ID {
	return ByteOps
}

func (byteOpsTable) Contains(f field.Field, tuple []constraint.Element) bool {
	if len(tuple) != 4 {
		return false
	}
	if allZero(tuple) {
		return true
	}
	v, ok := toU64s(f, tuple)
	if !ok || v[1] > 0xff || v[2] > 0xff {
		return false
	}
	op := ByteOp(v[0])
	if op < ByteAnd || op > ByteMsb {
		return false
	}
	if op.Unary() && v[2] != 0 {
		return false
	}
	return v[3] == uint64(op.Apply(uint8(v[1]), uint8(v[2])))
}

// RangeBits returns the width of a range table.
func RangeBits(id ID) int {
	switch id {
	case Range8:
		return 8
	case Range16:
		return 16
	}
	panic(fmt.Sprintf("%s is not a range table", id))
}

// Fixed returns a computed table, nil for dynamic ones.
func Fixed(id ID) Table {
	switch id {
	case Range8:
		return rangeTable{id: Range8, bits: 8}
	case Range16:
		return rangeTable{id: Range16, bits: 16}
	case ByteOps:
		return byteOpsTable{}
	}
	return nil
}
