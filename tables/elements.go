package tables

import (
	"sort"

	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// fill is a run of slots [from, to) added by one successful grow.
type fill struct {
	from, to uint64
	value    trace.Value
}

// Elements is the contents of one rwasm table. Grown slots are kept as runs
// of their fill value and only slots written by table.set are stored one by
// one, so a grow costs the same whatever its count.
type Elements struct {
	size  uint64
	max   uint32
	set   map[uint64]trace.Value
	fills []fill // ascending, disjoint
}

func NewElements(t trace.Table) *Elements {
	e := &Elements{
		size: uint64(len(t.Elements)),
		max:  t.Max,
		set:  make(map[uint64]trace.Value, len(t.Elements)),
	}
	for i, v := range t.Elements {
		e.set[uint64(i)] = v
	}
	return e
}

func (e *Elements) Len() uint64 {
	return e.size
}

// Get returns the element at i, false past the end of the table.
func (e *Elements) Get(i uint64) (trace.Value, bool) {
	if i >= e.size {
		return 0, false
	}
	if v, ok := e.set[i]; ok {
		return v, true
	}
	k := sort.Search(len(e.fills), func(k int) bool { return e.fills[k].to > i })
	if k < len(e.fills) && e.fills[k].from <= i {
		return e.fills[k].value, true
	}
	return 0, true
}

// Set writes v at i, false past the end of the table.
func (e *Elements) Set(i uint64, v trace.Value) bool {
	if i >= e.size {
		return false
	}
	e.set[i] = v
	return true
}

// Grow adds delta slots holding init and returns the old size, or
// GrowFailed leaving the table unchanged when it would pass its maximum.
func (e *Elements) Grow(init, delta trace.Value) trace.Value {
	old := e.size
	if delta > trace.Value(e.max) || old+uint64(delta) > uint64(e.max) {
		return GrowFailed
	}
	if delta > 0 {
		e.fills = append(e.fills, fill{from: old, to: old + uint64(delta), value: init})
		e.size += uint64(delta)
	}
	return trace.Value(old)
}
