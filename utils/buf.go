package utils

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// ErrShortBuffer is returned when an InputBuf runs out of bytes.
var ErrShortBuffer = errors.New("utils: short buffer")

type OutputBuf struct {
	buf []byte
}

// AppendBigInt writes x as 32 little-endian bytes.
func (o *OutputBuf) AppendBigInt(x *big.Int) {
	zbuf := make([]byte, 32)
	b := x.Bytes()
	for i := 0; i < len(b); i++ {
		zbuf[i] = b[len(b)-i-1]
	}
	o.buf = append(o.buf, zbuf...)
}

func (o *OutputBuf) AppendUint32(x uint32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, x)
}

func (o *OutputBuf) AppendUint64(x uint64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, x)
}

func (o *OutputBuf) Bytes() []byte {
	return o.buf
}

type InputBuf struct {
	buf []byte
}

func NewInputBuf(buf []byte) *InputBuf {
	return &InputBuf{buf: buf}
}

func (i *InputBuf) ReadUint32() (uint32, error) {
	if len(i.buf) < 4 {
		return 0, ErrShortBuffer
	}
	x := binary.LittleEndian.Uint32(i.buf[:4])
	i.buf = i.buf[4:]
	return x, nil
}

func (i *InputBuf) ReadUint64() (uint64, error) {
	if len(i.buf) < 8 {
		return 0, ErrShortBuffer
	}
	x := binary.LittleEndian.Uint64(i.buf[:8])
	i.buf = i.buf[8:]
	return x, nil
}

func (i *InputBuf) ReadBigInt() (*big.Int, error) {
	if len(i.buf) < 32 {
		return nil, ErrShortBuffer
	}
	zbuf := make([]byte, 32)
	for j := 0; j < 32; j++ {
		zbuf[j] = i.buf[31-j]
	}
	i.buf = i.buf[32:]
	return new(big.Int).SetBytes(zbuf), nil
}

// Remaining reports the number of unread bytes.
func (i *InputBuf) Remaining() int {
	return len(i.buf)
}
