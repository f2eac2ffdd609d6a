package test

import (
	"math/rand"

	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

type randRange struct {
	l int
	r int
}

func (rr randRange) sample(r *rand.Rand) int {
	return r.Intn(rr.r-rr.l+1) + rr.l
}

// RandomTraceConfig shapes the programs RandomTrace generates.
type RandomTraceConfig struct {
	Seed   int64
	Steps  int
	Window int
	// Globals and Tables are created up front with random contents.
	Globals int
	Tables  int
}

// RandomTrace records a random program of supported opcodes that never
// underflows the stack or accesses a local outside the window.
func RandomTrace(conf RandomTraceConfig) (*trace.Trace, error) {
	rnd := rand.New(rand.NewSource(conf.Seed))
	rec := NewRecorder(conf.Window)
	for i := 0; i < conf.Globals; i++ {
		rec.Global(randomValue(rnd))
	}
	for i := 0; i < conf.Tables; i++ {
		n := randRange{0, 4}.sample(rnd)
		elems := make([]trace.Value, n)
		for j := range elems {
			elems[j] = randomValue(rnd)
		}
		rec.Table(uint32(n+randRange{0, 8}.sample(rnd)), elems...)
	}
	for i := 0; i < 3; i++ {
		rec.Push(randomValue(rnd))
	}

	ops := execstate.Supported()
	for len(rec.tr.Steps) < conf.Steps {
		op := ops[rnd.Intn(len(ops))]
		imm, prelude, ok := randomOperands(rnd, rec, op, conf)
		if !ok {
			continue
		}
		for _, v := range prelude {
			rec.Exec(instruction.I32Const, uint64(v))
		}
		rec.Exec(op, imm)
		if rec.err != nil {
			return nil, rec.err
		}
	}
	return rec.Trace()
}

func randomValue(rnd *rand.Rand) trace.Value {
	switch rnd.Intn(4) {
	case 0:
		return trace.Value(rnd.Intn(4))
	case 1:
		return trace.Value(rnd.Uint32())
	case 2:
		return trace.Value(0xFFFFFFFF - uint64(rnd.Intn(3)))
	}
	return trace.Value(rnd.Uint64())
}

// randomOperands picks an immediate for op and the values to push before
// it, reporting false when op cannot run in the current state.
func randomOperands(rnd *rand.Rand, rec *Recorder, op instruction.Opcode, conf RandomTraceConfig) (uint64, []trace.Value, bool) {
	depth := len(rec.stack)
	// 32-bit operands must be zero-extended.
	narrow := func(n int) bool {
		if depth < n {
			return false
		}
		for _, v := range rec.stack[depth-n:] {
			if uint64(v) > 0xFFFFFFFF {
				return false
			}
		}
		return true
	}
	switch s, _ := execstate.Of(op); s {
	case execstate.Const:
		v := randomValue(rnd)
		if !op.Is64() {
			v &= 0xFFFFFFFF
		}
		return uint64(v), nil, true
	case execstate.Drop:
		return 0, nil, depth > 1
	case execstate.Select:
		return 0, nil, depth >= 3
	case execstate.Local:
		max, limit := depth, conf.Window
		if op == instruction.LocalSet {
			// the target sits below the popped value
			max--
			limit--
		}
		if max > limit {
			max = limit
		}
		if max < 1 {
			return 0, nil, false
		}
		return uint64(randRange{1, max}.sample(rnd)), nil, true
	case execstate.Global:
		if conf.Globals == 0 || (op == instruction.GlobalSet && depth < 1) {
			return 0, nil, false
		}
		return uint64(rnd.Intn(conf.Globals)), nil, true
	case execstate.Bin, execstate.Rel:
		if op.Is64() {
			return 0, nil, depth >= 2
		}
		return 0, nil, narrow(2)
	case execstate.Unary:
		if op.Is64() {
			return 0, nil, depth >= 1
		}
		return 0, nil, narrow(1)
	case execstate.Conversion:
		switch op {
		case instruction.I64ExtendI32S, instruction.I64ExtendI32U, instruction.I32Extend8S, instruction.I32Extend16S:
			return 0, nil, narrow(1)
		}
		return 0, nil, depth >= 1
	case execstate.Br:
		off := uint64(randRange{1, 4}.sample(rnd))
		return off, nil, op == instruction.Br || depth >= 1
	}
	if conf.Tables == 0 {
		return 0, nil, false
	}
	ti := rnd.Intn(conf.Tables)
	n := int(rec.tables[ti].Len())
	switch op {
	case instruction.TableSize:
		return uint64(ti), nil, true
	case instruction.TableGrow:
		// small counts so most grows succeed; init on top
		return uint64(ti), []trace.Value{trace.Value(rnd.Intn(3)), randomValue(rnd) & 0xFFFFFFFF}, true
	case instruction.TableGet:
		if n == 0 {
			return 0, nil, false
		}
		return uint64(ti), []trace.Value{trace.Value(rnd.Intn(n))}, true
	case instruction.TableSet:
		if n == 0 {
			return 0, nil, false
		}
		return uint64(ti), []trace.Value{trace.Value(rnd.Intn(n)), randomValue(rnd) & 0xFFFFFFFF}, true
	}
	return 0, nil, false
}
