package opcodes

import (
	"math/big"
	"math/bits"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

var (
	ops32 = []instruction.Opcode{instruction.I32Add, instruction.I32Sub, instruction.I32Mul, instruction.I32And, instruction.I32Or, instruction.I32Xor}
	ops64 = []instruction.Opcode{instruction.I64Add, instruction.I64Sub, instruction.I64Mul, instruction.I64And, instruction.I64Or, instruction.I64Xor}
)

// BinGadget computes c = a op b for the wrapping integer arithmetic and
// bitwise opcodes, b being the top of the stack. With N = 2^32 or 2^64:
//
//	add: a + b = c + hi*N, hi a carry bit
//	sub: b + c = a + hi*N, hi a borrow bit
//	mul: a * b = c + hi*N, hi < N
//
// and bitwise ops are checked byte by byte in the ByteOps table.
type BinGadget struct {
	flags builder.OpcodeFlags
	a     builder.Bytes
	b     builder.Bytes
	c     builder.Bytes
	hi    builder.Bytes
}

// pow2 returns 2^n as a constant expression.
func pow2(cb *builder.OpConstraintBuilder, n uint) expr.Expression {
	return cb.CS().Const(new(big.Int).Lsh(big.NewInt(1), n))
}

// requireU32 zeroes the high half of 64-bit decompositions.
func requireU32(cb *builder.OpConstraintBuilder, vs ...builder.Bytes) {
	for _, v := range vs {
		for i := 4; i < 8; i++ {
			cb.ConstrainZero("u32", v.Byte(i))
		}
	}
}

func ConfigureBin(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &BinGadget{
		flags: cb.RequireOpcodes(append(append([]instruction.Opcode{}, ops32...), ops64...)...),
		a:     cb.QueryU64(),
		b:     cb.QueryU64(),
		c:     cb.QueryU64(),
		hi:    cb.QueryU64(),
	}
	f := g.flags
	is32 := f.Any(ops32...)
	n := cs.Add(cs.Mul(is32, pow2(cb, 32)), cs.Mul(f.Any(ops64...), pow2(cb, 64)))
	a, b, c, hi := g.a.Expr(), g.b.Expr(), g.c.Expr(), g.hi.Expr()

	cb.Condition(is32, func() {
		requireU32(cb, g.a, g.b, g.c, g.hi)
	})
	cb.Condition(f.Any(instruction.I32Add, instruction.I64Add), func() {
		cb.RequireBool("carry", hi)
		cb.ConstrainEqual("add", cs.Add(a, b), cs.Add(c, cs.Mul(hi, n)))
	})
	cb.Condition(f.Any(instruction.I32Sub, instruction.I64Sub), func() {
		cb.RequireBool("borrow", hi)
		cb.ConstrainEqual("sub", cs.Add(b, c), cs.Add(a, cs.Mul(hi, n)))
	})
	cb.Condition(f.Any(instruction.I32Mul, instruction.I64Mul), func() {
		cb.ConstrainEqual("mul", cs.Mul(a, b), cs.Add(c, cs.Mul(hi, n)))
	})
	bitwise := []struct {
		op  tables.ByteOp
		ops []instruction.Opcode
	}{
		{tables.ByteAnd, []instruction.Opcode{instruction.I32And, instruction.I64And}},
		{tables.ByteOr, []instruction.Opcode{instruction.I32Or, instruction.I64Or}},
		{tables.ByteXor, []instruction.Opcode{instruction.I32Xor, instruction.I64Xor}},
	}
	for _, bw := range bitwise {
		bw := bw
		cb.Condition(f.Any(bw.ops...), func() {
			cb.ConstrainZero("bitwise_hi", hi)
			for i := 0; i < 8; i++ {
				cb.ByteOp(bw.op, g.a.Byte(i), g.b.Byte(i), g.c.Byte(i))
			}
		})
	}

	cb.StackPop(b)
	cb.StackPop(a)
	cb.StackPush(c)
	return g
}

func (*BinGadget) Name() string {
	return "WASM_BIN"
}

func (*BinGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Bin
}

// binHi is the word hi of the relation checked for op.
func binHi(op instruction.Opcode, a, b uint64) uint64 {
	switch op {
	case instruction.I32Add:
		return (a + b) >> 32
	case instruction.I64Add:
		_, carry := bits.Add64(a, b, 0)
		return carry
	case instruction.I32Sub, instruction.I64Sub:
		if a < b {
			return 1
		}
	case instruction.I32Mul:
		return (a * b) >> 32
	case instruction.I64Mul:
		hi, _ := bits.Mul64(a, b)
		return hi
	}
	return 0
}

func (g *BinGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if !accepts(g.ExecutionState(), step) {
		return IllegalOpcode(step, g.ExecutionState())
	}
	var b, a trace.Value
	if err := curr(step, &b, &a); err != nil {
		return err
	}
	c, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	op := step.Opcode()
	if _, err := g.flags.Assign(region, offset, op); err != nil {
		return err
	}
	for _, w := range []struct {
		bytes builder.Bytes
		v     uint64
	}{
		{g.a, uint64(a)}, {g.b, uint64(b)}, {g.c, uint64(c)}, {g.hi, binHi(op, uint64(a), uint64(b))},
	} {
		if err := w.bytes.Assign(region, offset, w.v); err != nil {
			return err
		}
	}
	return nil
}
