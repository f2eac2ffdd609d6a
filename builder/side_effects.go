package builder

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

func (cb *OpConstraintBuilder) tableOp(name string, tag uint64, tableIndex, x, y, z expr.Expression) {
	cb.Lookup(name, tables.TableOps, cb.cs.Const(tag), cb.common.Step.Expr(), tableIndex, x, y, z)
}

// TableGrow requires growing tableIndex by growVal slots of initVal to give
// resVal: the old size, or tables.GrowFailed past the table maximum.
func (cb *OpConstraintBuilder) TableGrow(tableIndex, initVal, growVal, resVal expr.Expression) {
	cb.tableOp("table_grow", tables.TagGrow, tableIndex, initVal, growVal, resVal)
}

func (cb *OpConstraintBuilder) TableSize(tableIndex, resVal expr.Expression) {
	zero := expr.Expression{}
	cb.tableOp("table_size", tables.TagSize, tableIndex, zero, zero, resVal)
}

func (cb *OpConstraintBuilder) TableGet(tableIndex, elemIndex, resVal expr.Expression) {
	cb.tableOp("table_get", tables.TagGet, tableIndex, elemIndex, expr.Expression{}, resVal)
}

func (cb *OpConstraintBuilder) TableSet(tableIndex, elemIndex, value expr.Expression) {
	cb.tableOp("table_set", tables.TagSet, tableIndex, elemIndex, value, expr.Expression{})
}

func (cb *OpConstraintBuilder) GlobalGet(index, value expr.Expression) {
	cb.Lookup("global_get", tables.GlobalOps, cb.cs.Const(tables.TagGlobalGet), cb.common.Step.Expr(), index, value)
}

func (cb *OpConstraintBuilder) GlobalSet(index, value expr.Expression) {
	cb.Lookup("global_set", tables.GlobalOps, cb.cs.Const(tables.TagGlobalSet), cb.common.Step.Expr(), index, value)
}
