// Package llil models a low-level intermediate language: typed operation
// trees with sizes and flag writes, and their canonical text form.
package llil

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOp    = errors.New("invalid operation")
	ErrInvalidSize  = errors.New("invalid operation size")
	ErrArity        = errors.New("wrong operand count")
	ErrOperandType  = errors.New("wrong operand type")
	ErrFlagsNotHeld = errors.New("operation has no flags")
)

// Operand is anything that can appear in an operation's operand list:
// *Expr, Reg, Flag or Int.
type Operand interface {
	operand()
}

// Reg references a register by name.
type Reg string

// Flag references a single flag by name.
type Flag string

// Int is a literal integer operand.
type Int int64

func (Reg) operand()   {}
func (Flag) operand()  {}
func (Int) operand()   {}
func (*Expr) operand() {}

func (r Reg) String() string  { return string(r) }
func (f Flag) String() string { return string(f) }
func (i Int) String() string  { return fmt.Sprintf("%d", int64(i)) }

// FlagWrite names the group of flags an operation updates. The empty
// value means the slot exists but nothing is written.
type FlagWrite string

// NoFlags is the empty flag write.
const NoFlags FlagWrite = ""

func (f FlagWrite) String() string {
	if f == NoFlags {
		return "none"
	}
	return string(f)
}

// ValidSize reports whether size is 0 (unsized) or one of 1, 2, 4, 8, 16.
func ValidSize(size int) bool {
	switch size {
	case 0, 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// Expr is one IL operation. Values are immutable once built.
type Expr struct {
	op       Op
	size     int
	flags    FlagWrite
	operands []Operand
}

// New builds an operation after checking its size, arity, operand types
// and flag slot against the kind.
func New(op Op, size int, flags FlagWrite, operands ...Operand) (*Expr, error) {
	if !op.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOp, op)
	}
	if !ValidSize(size) {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidSize, size)
	}
	info := ops[op]
	if flags != NoFlags && !info.flagged {
		return nil, fmt.Errorf("%s: %w", op, ErrFlagsNotHeld)
	}
	if len(operands) != len(info.slots) {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", op, ErrArity, len(operands), len(info.slots))
	}
	for i, o := range operands {
		if !fits(info.slots[i], o) {
			return nil, fmt.Errorf("%s operand %d: %w: got %T, want %s", op, i, ErrOperandType, o, info.slots[i])
		}
	}

	return &Expr{
		op:       op,
		size:     size,
		flags:    flags,
		operands: append([]Operand(nil), operands...),
	}, nil
}

func fits(s slot, o Operand) bool {
	switch v := o.(type) {
	case *Expr:
		return s == slotExpr && v != nil
	case Reg:
		return s == slotReg && v != ""
	case Flag:
		return s == slotFlag && v != ""
	case Int:
		return s == slotInt
	}
	return false
}

func (e *Expr) Op() Op    { return e.op }
func (e *Expr) Size() int { return e.size }

// Flags returns the flag write and whether the kind has a flags slot.
func (e *Expr) Flags() (FlagWrite, bool) {
	return e.flags, e.op.HasFlags()
}

// ConstValue returns the literal of a constant, normalized to its size.
func (e *Expr) ConstValue() (uint64, bool) {
	if !e.op.IsConst() {
		return 0, false
	}
	return Normalize(int64(e.operands[0].(Int)), e.size), true
}

func (e *Expr) String() string {
	return CanonicalExpr(e)
}

// Normalize re-encodes v as an unsigned value of size bytes. Sizes of 8
// and above keep all 64 bits.
func Normalize(v int64, size int) uint64 {
	if size <= 0 || size >= 8 {
		return uint64(v)
	}
	return uint64(v) & (1<<(8*uint(size)) - 1)
}

// Sequence is the ordered list of operations lifted from one instruction.
type Sequence []*Expr

// HasTerminator reports whether the sequence ends in LLIL_UNDEF.
func (s Sequence) HasTerminator() bool {
	return len(s) > 0 && s[len(s)-1].op == OpUndef
}

// Trimmed drops exactly one trailing LLIL_UNDEF. A sequence holding only
// the terminator is returned unchanged so a lift never becomes empty.
func (s Sequence) Trimmed() Sequence {
	if len(s) < 2 || !s.HasTerminator() {
		return s
	}
	return s[: len(s)-1 : len(s)-1]
}

func (s Sequence) String() string {
	return Canonical(s)
}
