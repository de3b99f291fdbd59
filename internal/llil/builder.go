package llil

// Builder assembles a Sequence. Constructor errors are sticky: the first
// one is kept and returned by Sequence, later calls become no-ops that
// return nil expressions.
type Builder struct {
	seq Sequence
	err error
}

// Err returns the first construction error, if any.
func (b *Builder) Err() error { return b.err }

// Len is the number of statements emitted so far. Branch targets of
// LLIL_IF are statement indices.
func (b *Builder) Len() int { return len(b.seq) }

// Emit appends a statement.
func (b *Builder) Emit(e *Expr) {
	if b.err != nil || e == nil {
		return
	}
	b.seq = append(b.seq, e)
}

// Sequence returns the statements emitted so far, or the first error.
func (b *Builder) Sequence() (Sequence, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.seq, nil
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.seq, b.err = nil, nil
}

func (b *Builder) make(op Op, size int, flags FlagWrite, operands ...Operand) *Expr {
	if b.err != nil {
		return nil
	}
	e, err := New(op, size, flags, operands...)
	if err != nil {
		b.err = err
		return nil
	}
	return e
}

func (b *Builder) Nop() *Expr     { return b.make(OpNop, 0, NoFlags) }
func (b *Builder) Undef() *Expr   { return b.make(OpUndef, 0, NoFlags) }
func (b *Builder) Syscall() *Expr { return b.make(OpSyscall, 0, NoFlags) }

func (b *Builder) Const(size int, v int64) *Expr    { return b.make(OpConst, size, NoFlags, Int(v)) }
func (b *Builder) ConstPtr(size int, v int64) *Expr { return b.make(OpConstPtr, size, NoFlags, Int(v)) }
func (b *Builder) Reg(size int, r Reg) *Expr        { return b.make(OpReg, size, NoFlags, r) }
func (b *Builder) Flag(f Flag) *Expr                { return b.make(OpFlag, 0, NoFlags, f) }

func (b *Builder) SetReg(size int, r Reg, v *Expr, fw FlagWrite) *Expr {
	return b.make(OpSetReg, size, fw, r, v)
}

func (b *Builder) Add(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpAdd, size, fw, x, y)
}

// Adc adds x, y and the carry expression.
func (b *Builder) Adc(size int, x, y, carry *Expr, fw FlagWrite) *Expr {
	return b.make(OpAdc, size, fw, x, y, carry)
}

func (b *Builder) Sub(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpSub, size, fw, x, y)
}
func (b *Builder) And(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpAnd, size, fw, x, y)
}
func (b *Builder) Or(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpOr, size, fw, x, y)
}
func (b *Builder) Xor(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpXor, size, fw, x, y)
}
func (b *Builder) Lsl(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpLsl, size, fw, x, y)
}
func (b *Builder) Lsr(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpLsr, size, fw, x, y)
}
func (b *Builder) Asr(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpAsr, size, fw, x, y)
}
func (b *Builder) Rol(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpRol, size, fw, x, y)
}
func (b *Builder) Mul(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpMul, size, fw, x, y)
}
func (b *Builder) DivS(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpDivs, size, fw, x, y)
}
func (b *Builder) DivU(size int, x, y *Expr, fw FlagWrite) *Expr {
	return b.make(OpDivu, size, fw, x, y)
}

func (b *Builder) Neg(size int, x *Expr, fw FlagWrite) *Expr { return b.make(OpNeg, size, fw, x) }
func (b *Builder) Not(size int, x *Expr, fw FlagWrite) *Expr { return b.make(OpNot, size, fw, x) }

// SignExtend widens x to size, copying its top bit.
func (b *Builder) SignExtend(size int, x *Expr) *Expr { return b.make(OpSx, size, NoFlags, x) }

// ZeroExtend widens x to size.
func (b *Builder) ZeroExtend(size int, x *Expr) *Expr { return b.make(OpZx, size, NoFlags, x) }

// LowPart truncates x to size.
func (b *Builder) LowPart(size int, x *Expr) *Expr { return b.make(OpLowPart, size, NoFlags, x) }

func (b *Builder) CmpE(size int, x, y *Expr) *Expr  { return b.make(OpCmpE, size, NoFlags, x, y) }
func (b *Builder) CmpNE(size int, x, y *Expr) *Expr { return b.make(OpCmpNe, size, NoFlags, x, y) }

func (b *Builder) Load(size int, addr *Expr) *Expr { return b.make(OpLoad, size, NoFlags, addr) }

func (b *Builder) Store(size int, addr, v *Expr) *Expr {
	return b.make(OpStore, size, NoFlags, addr, v)
}

func (b *Builder) Jump(dest *Expr) *Expr { return b.make(OpJump, 0, NoFlags, dest) }
func (b *Builder) Call(dest *Expr) *Expr { return b.make(OpCall, 0, NoFlags, dest) }
func (b *Builder) Ret(dest *Expr) *Expr  { return b.make(OpRet, 0, NoFlags, dest) }

// If branches to statement t when cond holds and to f otherwise.
func (b *Builder) If(cond *Expr, t, f int) *Expr {
	return b.make(OpIf, 0, NoFlags, cond, Int(t), Int(f))
}
