package layout

import (
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

const witnessVersion = 1

// Witness is the full assignment handed to the prover: one element per cell.
type Witness struct {
	Field    field.Field
	Rows     int
	Advice   [][]constraint.Element
	Fixed    [][]constraint.Element
	Instance [][]constraint.Element
}

func (w *Witness) Columns(k ColumnKind) [][]constraint.Element {
	switch k {
	case Advice:
		return w.Advice
	case Fixed:
		return w.Fixed
	case Instance:
		return w.Instance
	}
	return nil
}

// Value reads (col, offset), zero outside the grid.
func (w *Witness) Value(col Column, offset int) constraint.Element {
	cols := w.Columns(col.Kind)
	if col.Index < 0 || col.Index >= len(cols) || offset < 0 || offset >= w.Rows {
		return constraint.Element{}
	}
	return cols[col.Index][offset]
}

// Set overwrites a cell. It exists for tests that tamper with a witness.
func (w *Witness) Set(col Column, offset int, v constraint.Element) {
	w.Columns(col.Kind)[col.Index][offset] = v
}

// Clone returns a deep copy.
func (w *Witness) Clone() *Witness {
	res := &Witness{Field: w.Field, Rows: w.Rows}
	cp := func(cols [][]constraint.Element) [][]constraint.Element {
		out := make([][]constraint.Element, len(cols))
		for i, c := range cols {
			out[i] = append([]constraint.Element(nil), c...)
		}
		return out
	}
	res.Advice = cp(w.Advice)
	res.Fixed = cp(w.Fixed)
	res.Instance = cp(w.Instance)
	return res
}

// Serialize writes the version, the field modulus, the shape and then every
// column as 32-byte little-endian elements, advice first.
func (w *Witness) Serialize() []byte {
	buf := utils.OutputBuf{}
	buf.AppendUint32(witnessVersion)
	buf.AppendBigInt(w.Field.Field())
	buf.AppendUint64(uint64(w.Rows))
	for k := ColumnKind(0); k < numKinds; k++ {
		buf.AppendUint32(uint32(len(w.Columns(k))))
	}
	for k := ColumnKind(0); k < numKinds; k++ {
		for _, col := range w.Columns(k) {
			for _, x := range col {
				buf.AppendBigInt(w.Field.ToBigInt(x))
			}
		}
	}
	return buf.Bytes()
}

// DeserializeWitness reads what Serialize wrote.
func DeserializeWitness(b []byte) (*Witness, error) {
	in := utils.NewInputBuf(b)
	version, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != witnessVersion {
		return nil, fmt.Errorf("unsupported witness version %d", version)
	}
	modulus, err := in.ReadBigInt()
	if err != nil {
		return nil, err
	}
	f, err := field.FromOrder(modulus)
	if err != nil {
		return nil, err
	}
	w := &Witness{Field: f}
	rows, err := in.ReadUint64()
	if err != nil {
		return nil, err
	}
	w.Rows = int(rows)
	var counts [numKinds]uint32
	for k := range counts {
		if counts[k], err = in.ReadUint32(); err != nil {
			return nil, err
		}
	}
	if need := uint64(counts[0]+counts[1]+counts[2]) * rows * 32; uint64(in.Remaining()) != need {
		return nil, fmt.Errorf("witness body has %d bytes, want %d", in.Remaining(), need)
	}
	for k := ColumnKind(0); k < numKinds; k++ {
		cols := make([][]constraint.Element, counts[k])
		for i := range cols {
			cols[i] = make([]constraint.Element, w.Rows)
			for j := range cols[i] {
				x, err := in.ReadBigInt()
				if err != nil {
					return nil, err
				}
				if x.Cmp(modulus) >= 0 {
					return nil, fmt.Errorf("%w: element not reduced", field.ErrValueDecode)
				}
				cols[i][j] = w.Field.FromInterface(x)
			}
		}
		switch k {
		case Advice:
			w.Advice = cols
		case Fixed:
			w.Fixed = cols
		case Instance:
			w.Instance = cols
		}
	}
	return w, nil
}
