// Package bits extracts fixed-width fields from 32-bit instruction words.
package bits

import (
	"errors"
	"fmt"
)

// WordBits is the width of an instruction word.
const WordBits = 32

// ErrOutOfRange is returned when a field does not fit inside a word.
var ErrOutOfRange = errors.New("bit field out of range")

// Order selects how Field.Offset is counted.
type Order uint8

const (
	// MSB0 numbers bits from the most significant end (bit 0 is the MSB),
	// which is how the PowerPC manuals describe instruction formats.
	MSB0 Order = iota
	// LSB0 numbers bits from the least significant end.
	LSB0
)

// Field is a contiguous run of bits inside an instruction word.
type Field struct {
	Offset uint
	Width  uint
	Order  Order
}

// F returns an MSB0 field covering bits [from, to] inclusive.
func F(from, to uint) Field {
	if to < from {
		return Field{Offset: from}
	}
	return Field{Offset: from, Width: to - from + 1, Order: MSB0}
}

func (f Field) String() string {
	if f.Order == LSB0 {
		return fmt.Sprintf("lsb0[%d:+%d]", f.Offset, f.Width)
	}
	return fmt.Sprintf("msb0[%d:+%d]", f.Offset, f.Width)
}

// Valid reports whether the field lies entirely within a word.
func (f Field) Valid() bool {
	return f.Width > 0 && f.Offset+f.Width <= WordBits
}

// Extract returns the unsigned value of the field in w.
func (f Field) Extract(w uint32) (uint32, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, f)
	}

	shift := f.Offset
	if f.Order == MSB0 {
		shift = WordBits - f.Offset - f.Width
	}

	mask := uint32(1)<<f.Width - 1
	if f.Width == WordBits {
		mask = ^uint32(0)
	}
	return (w >> shift) & mask, nil
}

// SignExtend interprets the low width bits of v as a two's-complement number.
func SignExtend(v uint32, width uint) int32 {
	if width == 0 || width >= WordBits {
		return int32(v)
	}
	shift := WordBits - width
	return int32(v<<shift) >> shift
}
