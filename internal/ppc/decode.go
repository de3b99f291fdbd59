// Package ppc decodes 32-bit big-endian PowerPC instruction words into
// descriptors and raw operand fields.
package ppc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"ppcil/internal/bits"
)

// InstructionSize is the fixed instruction width in bytes.
const InstructionSize = 4

var (
	// ErrUnrecognizedEncoding means no descriptor matches the word.
	ErrUnrecognizedEncoding = errors.New("unrecognized encoding")
	// ErrMalformedInput means the input is not a single instruction word.
	ErrMalformedInput = errors.New("malformed instruction input")
)

// UnrecognizedError carries the details of a failed dispatch.
type UnrecognizedError struct {
	Word        uint32
	Primary     uint32
	Extended    uint32
	HasExtended bool
	Reason      string
}

func (e *UnrecognizedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 0x%08x (opcd %d", ErrUnrecognizedEncoding, e.Word, e.Primary)
	if e.HasExtended {
		fmt.Fprintf(&sb, "/%d", e.Extended)
	}
	sb.WriteString(")")
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	return sb.String()
}

func (e *UnrecognizedError) Is(target error) bool {
	return target == ErrUnrecognizedEncoding
}

// Operand is one raw field value taken from the instruction word.
type Operand struct {
	Field FieldID
	Value uint32
}

// Inst is a decoded instruction. It is never modified after Decode returns.
type Inst struct {
	Word uint32
	Desc *Descriptor
	Args []Operand
}

// Mnemonic returns the base mnemonic of the descriptor.
func (i Inst) Mnemonic() string {
	if i.Desc == nil {
		return ""
	}
	return i.Desc.Mnemonic
}

// Name returns the mnemonic with the "o" and "." suffixes implied by the
// OE and Rc bits.
func (i Inst) Name() string {
	name := i.Mnemonic()
	if i.Value(FieldOE) != 0 {
		name += "o"
	}
	if i.Value(FieldRc) != 0 {
		name += "."
	}
	return name
}

// Get returns the value of field f, if the descriptor lists it.
func (i Inst) Get(f FieldID) (uint32, bool) {
	for _, a := range i.Args {
		if a.Field == f {
			return a.Value, true
		}
	}
	return 0, false
}

// Value returns field f, or zero when the descriptor does not list it.
func (i Inst) Value(f FieldID) uint32 {
	v, _ := i.Get(f)
	return v
}

// Flag reports whether the one-bit field f is set.
func (i Inst) Flag(f FieldID) bool {
	return i.Value(f) != 0
}

// Reg returns field f interpreted as a general purpose register.
func (i Inst) Reg(f FieldID) Reg {
	return GPR(i.Value(f))
}

// Signed returns field f sign-extended from its encoded width.
func (i Inst) Signed(f FieldID) int32 {
	return bits.SignExtend(i.Value(f), f.Layout().Width)
}

func (i Inst) String() string {
	var sb strings.Builder
	sb.WriteString(i.Name())
	for n, a := range i.Args {
		if n == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%d", a.Field, a.Value)
	}
	return sb.String()
}

type index struct {
	primary  [64]*Descriptor
	extended map[uint32]*Descriptor
}

func extKey(primary, xo uint32) uint32 {
	return primary<<10 | xo
}

func buildIndex(table []*Descriptor) (*index, error) {
	idx := &index{extended: make(map[uint32]*Descriptor)}

	put := func(key uint32, d *Descriptor) error {
		if prev, ok := idx.extended[key]; ok {
			return fmt.Errorf("%s collides with %s", d, prev)
		}
		idx.extended[key] = d
		return nil
	}

	for _, d := range table {
		for _, f := range d.Fields {
			if !f.Layout().Valid() {
				return nil, fmt.Errorf("%s: field %s: %w", d, f, bits.ErrOutOfRange)
			}
		}
		if d.Primary >= 64 {
			return nil, fmt.Errorf("%s: primary opcode out of range", d)
		}

		switch {
		case !hasExtended(d.Primary):
			if prev := idx.primary[d.Primary]; prev != nil {
				return nil, fmt.Errorf("%s collides with %s", d, prev)
			}
			idx.primary[d.Primary] = d
		case d.Form == FormXO:
			// OE=0 and OE=1 share the descriptor.
			if err := put(extKey(d.Primary, d.Extended), d); err != nil {
				return nil, err
			}
			if err := put(extKey(d.Primary, d.Extended|1<<9), d); err != nil {
				return nil, err
			}
		default:
			if err := put(extKey(d.Primary, d.Extended), d); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}

var table = func() *index {
	idx, err := buildIndex(descriptors)
	if err != nil {
		panic("ppc: bad instruction table: " + err.Error())
	}
	return idx
}()

// Lookup finds the descriptor for w without extracting operands.
func Lookup(w uint32) (*Descriptor, error) {
	primary := mustField(FieldOPCD, w)
	if !hasExtended(primary) {
		if d := table.primary[primary]; d != nil {
			return d, checkValid(d, w)
		}
		return nil, &UnrecognizedError{Word: w, Primary: primary}
	}

	xo := mustField(FieldXO, w)
	if d, ok := table.extended[extKey(primary, xo)]; ok {
		return d, checkValid(d, w)
	}
	return nil, &UnrecognizedError{Word: w, Primary: primary, Extended: xo, HasExtended: true}
}

func checkValid(d *Descriptor, w uint32) error {
	err := reservedLowBit(d, w)
	if err == nil && d.valid != nil {
		err = d.valid(w)
	}
	if err != nil {
		e := &UnrecognizedError{Word: w, Primary: d.Primary, Reason: err.Error()}
		if hasExtended(d.Primary) {
			e.Extended, e.HasExtended = mustField(FieldXO, w), true
		}
		return e
	}
	return nil
}

// reservedLowBit rejects a set bit 31 on extended-opcode forms that use it
// for neither Rc nor LK.
func reservedLowBit(d *Descriptor, w uint32) error {
	if !hasExtended(d.Primary) || w&1 == 0 {
		return nil
	}
	for _, f := range d.Fields {
		if f == FieldRc || f == FieldLK {
			return nil
		}
	}
	return fmt.Errorf("reserved bit 31 is set")
}

// Decode maps an instruction word to its descriptor and operand fields.
// Every word yields either an Inst or an error wrapping
// ErrUnrecognizedEncoding.
func Decode(w uint32) (Inst, error) {
	d, err := Lookup(w)
	if err != nil {
		return Inst{Word: w}, err
	}

	args := make([]Operand, 0, len(d.Fields))
	for _, f := range d.Fields {
		v, err := f.Extract(w)
		if err != nil {
			return Inst{Word: w}, fmt.Errorf("%s: field %s: %w", d.Mnemonic, f, err)
		}
		args = append(args, Operand{Field: f, Value: v})
	}
	return Inst{Word: w, Desc: d, Args: args}, nil
}

// Word assembles a big-endian instruction word from exactly four bytes.
func Word(b []byte) (uint32, error) {
	if len(b) != InstructionSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedInput, len(b), InstructionSize)
	}
	return binary.BigEndian.Uint32(b), nil
}

// DecodeBytes decodes a single big-endian instruction.
func DecodeBytes(b []byte) (Inst, error) {
	w, err := Word(b)
	if err != nil {
		return Inst{}, err
	}
	return Decode(w)
}
