package utils

import (
	"fmt"
	"math/big"
)

// FromInterface converts an integer-like value to a big.Int.
// It panics on types it does not know, as gnark does.
func FromInterface(input interface{}) big.Int {
	var r big.Int

	switch v := input.(type) {
	case big.Int:
		r.Set(&v)
	case *big.Int:
		r.Set(v)
	case uint8:
		r.SetUint64(uint64(v))
	case uint16:
		r.SetUint64(uint64(v))
	case uint32:
		r.SetUint64(uint64(v))
	case uint64:
		r.SetUint64(v)
	case uint:
		r.SetUint64(uint64(v))
	case int8:
		r.SetInt64(int64(v))
	case int16:
		r.SetInt64(int64(v))
	case int32:
		r.SetInt64(int64(v))
	case int64:
		r.SetInt64(v)
	case int:
		r.SetInt64(int64(v))
	case bool:
		if v {
			r.SetUint64(1)
		}
	case string:
		if _, ok := r.SetString(v, 0); !ok {
			panic(fmt.Sprintf("unable to set big.Int from string %q", v))
		}
	case []byte:
		r.SetBytes(v)
	default:
		panic(fmt.Sprintf("unsupported type %T", input))
	}

	return r
}
