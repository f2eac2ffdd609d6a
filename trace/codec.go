package trace

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Encode serializes t deterministically as CBOR.
func Encode(t *Trace) ([]byte, error) {
	b, err := encMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode trace: %w", err)
	}
	return b, nil
}

// Decode parses a trace written by Encode.
func Decode(b []byte) (*Trace, error) {
	t := &Trace{}
	if err := decMode.Unmarshal(b, t); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return t, nil
}
