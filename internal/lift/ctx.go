package lift

import (
	"ppcil/internal/llil"
	"ppcil/internal/ppc"
)

// word is the natural operation width in bytes.
const word = 4

type template func(c *ctx)

// ctx is the state of one lift.
type ctx struct {
	llil.Builder
	inst ppc.Inst
	addr uint32
	// terminal is set by templates that end the block, so no terminator
	// is appended.
	terminal bool
}

func regName(r ppc.Reg) llil.Reg { return llil.Reg(r.String()) }

func (c *ctx) reg(r ppc.Reg) *llil.Expr { return c.Reg(word, regName(r)) }

// gpr reads the register named by field f.
func (c *ctx) gpr(f ppc.FieldID) *llil.Expr { return c.reg(c.inst.Reg(f)) }

func (c *ctx) imm(v int64) *llil.Expr { return c.Const(word, v) }

func (c *ctx) simm(f ppc.FieldID) *llil.Expr { return c.imm(int64(c.inst.Signed(f))) }
func (c *ctx) uimm(f ppc.FieldID) *llil.Expr { return c.imm(int64(c.inst.Value(f))) }

// shifted returns field f moved into the upper halfword.
func (c *ctx) shifted(f ppc.FieldID, signed bool) *llil.Expr {
	if signed {
		return c.imm(int64(c.inst.Signed(f)) << 16)
	}
	return c.imm(int64(c.inst.Value(f)) << 16)
}

func (c *ctx) setReg(r ppc.Reg, v *llil.Expr, fw llil.FlagWrite) {
	c.Emit(c.SetReg(word, regName(r), v, fw))
}

// set writes v to the register named by field f.
func (c *ctx) set(f ppc.FieldID, v *llil.Expr, fw llil.FlagWrite) {
	c.setReg(c.inst.Reg(f), v, fw)
}

func (c *ctx) isZero(f ppc.FieldID) bool { return c.inst.Value(f) == 0 }

var (
	cr0      = llil.FlagWrite(ppc.CRWrite(0, true))
	xerCA    = llil.FlagWrite(ppc.WriteXERCA)
	xerOVSO  = llil.FlagWrite(ppc.WriteXEROVSO)
	xerWrite = llil.FlagWrite(ppc.WriteXER)
)

// record is the flag write of a logical op: cr0 when Rc is set.
func (c *ctx) record() llil.FlagWrite {
	if c.inst.Flag(ppc.FieldRc) {
		return cr0
	}
	return llil.NoFlags
}

// arith is the flag write of an XO-form op. Rc wins over OE.
func (c *ctx) arith() llil.FlagWrite {
	switch {
	case c.inst.Flag(ppc.FieldRc):
		return cr0
	case c.inst.Flag(ppc.FieldOE):
		return xerOVSO
	}
	return llil.NoFlags
}

// carrying is the flag write of an op that always updates xer_ca.
func (c *ctx) carrying() llil.FlagWrite {
	if fw := c.arith(); fw != llil.NoFlags {
		return fw
	}
	return xerCA
}

// ea is the effective address of a D-form access plus extra bytes.
// rA=0 reads as zero.
func (c *ctx) ea(extra int64) *llil.Expr {
	d := int64(c.inst.Signed(ppc.FieldD)) + extra
	if c.isZero(ppc.FieldRA) {
		return c.imm(d)
	}
	return c.Add(word, c.gpr(ppc.FieldRA), c.imm(d), llil.NoFlags)
}

// eaX is the effective address of an indexed access.
func (c *ctx) eaX() *llil.Expr {
	if c.isZero(ppc.FieldRA) {
		return c.gpr(ppc.FieldRB)
	}
	return c.Add(word, c.gpr(ppc.FieldRA), c.gpr(ppc.FieldRB), llil.NoFlags)
}

// target resolves a branch displacement against the instruction address.
func (c *ctx) target(disp int64, abs bool) *llil.Expr {
	if abs {
		return c.ConstPtr(word, int64(uint32(disp)))
	}
	return c.ConstPtr(word, int64(c.addr+uint32(disp)))
}

// condition builds the test of a conditional branch from BO and BI and
// emits the CTR decrement when BO asks for one. It returns nil for an
// unconditional branch.
func (c *ctx) condition(bo, bi uint32) *llil.Expr {
	var ctrCond, crCond *llil.Expr

	if bo&ppc.BOIgnoreCTR == 0 {
		c.setReg(ppc.CTR, c.Sub(word, c.reg(ppc.CTR), c.imm(1), llil.NoFlags), llil.NoFlags)
		if bo&ppc.BOCTRZero != 0 {
			ctrCond = c.CmpE(word, c.reg(ppc.CTR), c.imm(0))
		} else {
			ctrCond = c.CmpNE(word, c.reg(ppc.CTR), c.imm(0))
		}
	}
	if bo&ppc.BOIgnoreCond == 0 {
		crCond = c.Flag(llil.Flag(ppc.CRBit(bi)))
		if bo&ppc.BOCondTrue == 0 {
			crCond = c.Not(1, crCond, llil.NoFlags)
		}
	}

	switch {
	case ctrCond != nil && crCond != nil:
		return c.And(1, ctrCond, crCond, llil.NoFlags)
	case ctrCond != nil:
		return ctrCond
	}
	return crCond
}

type transferKind uint8

const (
	toJump transferKind = iota
	toCall
	toRet
)

func (c *ctx) transfer(kind transferKind, dest *llil.Expr) *llil.Expr {
	switch kind {
	case toCall:
		return c.Call(dest)
	case toRet:
		return c.Ret(dest)
	}
	return c.Jump(dest)
}

// branch emits a transfer to dest, guarded by cond when it is non-nil.
// A conditional jump or return ends the block with an explicit jump to
// the next instruction on the false path. Calls continue at the
// terminator, which is also the false target of a conditional call.
func (c *ctx) branch(cond, dest *llil.Expr, kind transferKind) {
	if cond == nil {
		c.Emit(c.transfer(kind, dest))
		c.terminal = kind != toCall
		return
	}

	n := c.Len()
	c.Emit(c.If(cond, n+1, n+2))
	c.Emit(c.transfer(kind, dest))
	if kind == toCall {
		return
	}
	c.Emit(c.Jump(c.ConstPtr(word, int64(c.addr+ppc.InstructionSize))))
	c.terminal = true
}

// rotateMask is the MB..ME mask of the rotate instructions, wrapping when
// MB > ME. Bits are numbered from the most significant.
func rotateMask(mb, me uint32) uint32 {
	lo := uint32(0xFFFFFFFF) >> (mb & 31)
	hi := uint32(0xFFFFFFFF) << (31 - me&31)
	if mb <= me {
		return lo & hi
	}
	return lo | hi
}
