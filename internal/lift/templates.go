package lift

import (
	"ppcil/internal/llil"
	"ppcil/internal/ppc"
)

// templates maps each descriptor mnemonic to its semantics. Every entry
// in the decoder table must appear here; CheckTemplates enforces it.
var templates = map[string]template{
	// Add and subtract.
	"addi":   addi,
	"addis":  addis,
	"addic":  addic,
	"addic.": addicRecord,
	"add":    add,
	"addc":   addc,
	"adde":   adde,
	"addze":  addze,
	"subf":   subf,
	"subfc":  subfc,
	"subfic": subfic,
	"neg":    neg,

	// Multiply and divide.
	"mulli": mulli,
	"mullw": binaryXO((*llil.Builder).Mul),
	"divw":  binaryXO((*llil.Builder).DivS),
	"divwu": binaryXO((*llil.Builder).DivU),

	// Logical.
	"and":    logical((*llil.Builder).And, false),
	"andc":   andc,
	"or":     or,
	"nor":    nor,
	"xor":    logical((*llil.Builder).Xor, false),
	"nand":   logical((*llil.Builder).And, true),
	"eqv":    logical((*llil.Builder).Xor, true),
	"ori":    ori,
	"oris":   immLogical((*llil.Builder).Or, true, false),
	"xori":   immLogical((*llil.Builder).Xor, false, false),
	"xoris":  immLogical((*llil.Builder).Xor, true, false),
	"andi.":  immLogical((*llil.Builder).And, false, true),
	"andis.": immLogical((*llil.Builder).And, true, true),
	"extsb":  extend(1),
	"extsh":  extend(2),

	// Shift and rotate.
	"slw":    logical((*llil.Builder).Lsl, false),
	"srw":    logical((*llil.Builder).Lsr, false),
	"sraw":   sraw,
	"srawi":  srawi,
	"rlwinm": rlwinm,

	// Compare.
	"cmp":   compare(true, false),
	"cmpl":  compare(false, false),
	"cmpi":  compare(true, true),
	"cmpli": compare(false, true),

	// Load.
	"lwz":  load(4, false, false),
	"lwzu": load(4, false, true),
	"lbz":  load(1, false, false),
	"lbzu": load(1, false, true),
	"lhz":  load(2, false, false),
	"lhzu": load(2, false, true),
	"lha":  load(2, true, false),
	"lhau": load(2, true, true),
	"lwzx": loadX(4),
	"lbzx": loadX(1),
	"lhzx": loadX(2),
	"lmw":  lmw,

	// Store.
	"stw":  store(4, false),
	"stwu": store(4, true),
	"stb":  store(1, false),
	"stbu": store(1, true),
	"sth":  store(2, false),
	"sthu": store(2, true),
	"stwx": storeX(4),
	"stbx": storeX(1),
	"sthx": storeX(2),
	"stmw": stmw,

	// Branch.
	"b":     b,
	"bc":    bc,
	"bclr":  bcRegister(ppc.LR, toRet),
	"bcctr": bcRegister(ppc.CTR, toJump),

	// Special purpose registers.
	"mfspr": mfspr,
	"mtspr": mtspr,

	// System.
	"sc":    func(c *ctx) { c.Emit(c.Syscall()) },
	"sync":  nop,
	"isync": nop,
	"eieio": nop,
	"dcbf":  nop,
	"dcbst": nop,
	"dcbt":  nop,
	"icbi":  nop,
}

type binaryOp func(b *llil.Builder, size int, x, y *llil.Expr, fw llil.FlagWrite) *llil.Expr

func nop(c *ctx) { c.Emit(c.Nop()) }

func addi(c *ctx) {
	if c.isZero(ppc.FieldRA) {
		c.set(ppc.FieldRT, c.simm(ppc.FieldSI), llil.NoFlags)
		return
	}
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.simm(ppc.FieldSI), llil.NoFlags), llil.NoFlags)
}

func addis(c *ctx) {
	if c.isZero(ppc.FieldRA) {
		c.set(ppc.FieldRT, c.shifted(ppc.FieldSI, true), llil.NoFlags)
		return
	}
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.shifted(ppc.FieldSI, true), llil.NoFlags), llil.NoFlags)
}

func addic(c *ctx) {
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.simm(ppc.FieldSI), xerCA), llil.NoFlags)
}

func addicRecord(c *ctx) {
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.simm(ppc.FieldSI), cr0), llil.NoFlags)
}

func add(c *ctx) {
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.gpr(ppc.FieldRB), c.arith()), llil.NoFlags)
}

func addc(c *ctx) {
	c.set(ppc.FieldRT, c.Add(word, c.gpr(ppc.FieldRA), c.gpr(ppc.FieldRB), c.carrying()), llil.NoFlags)
}

func adde(c *ctx) {
	carry := c.Flag(ppc.FlagXERCA)
	c.set(ppc.FieldRT, c.Adc(word, c.gpr(ppc.FieldRA), c.gpr(ppc.FieldRB), carry, c.carrying()), llil.NoFlags)
}

func addze(c *ctx) {
	carry := c.Flag(ppc.FlagXERCA)
	c.set(ppc.FieldRT, c.Adc(word, c.gpr(ppc.FieldRA), c.imm(0), carry, c.carrying()), llil.NoFlags)
}

// subf computes rB - rA.
func subf(c *ctx) {
	c.set(ppc.FieldRT, c.Sub(word, c.gpr(ppc.FieldRB), c.gpr(ppc.FieldRA), c.arith()), llil.NoFlags)
}

func subfc(c *ctx) {
	c.set(ppc.FieldRT, c.Sub(word, c.gpr(ppc.FieldRB), c.gpr(ppc.FieldRA), c.carrying()), llil.NoFlags)
}

func subfic(c *ctx) {
	c.set(ppc.FieldRT, c.Sub(word, c.simm(ppc.FieldSI), c.gpr(ppc.FieldRA), xerCA), llil.NoFlags)
}

func neg(c *ctx) {
	c.set(ppc.FieldRT, c.Neg(word, c.gpr(ppc.FieldRA), c.arith()), llil.NoFlags)
}

func mulli(c *ctx) {
	c.set(ppc.FieldRT, c.Mul(word, c.gpr(ppc.FieldRA), c.simm(ppc.FieldSI), llil.NoFlags), llil.NoFlags)
}

// binaryXO lifts rT = rA op rB with OE/Rc flags.
func binaryXO(op binaryOp) template {
	return func(c *ctx) {
		v := op(&c.Builder, word, c.gpr(ppc.FieldRA), c.gpr(ppc.FieldRB), c.arith())
		c.set(ppc.FieldRT, v, llil.NoFlags)
	}
}

// logical lifts rA = rS op rB, complemented when invert is set.
func logical(op binaryOp, invert bool) template {
	return func(c *ctx) {
		if !invert {
			c.set(ppc.FieldRA, op(&c.Builder, word, c.gpr(ppc.FieldRS), c.gpr(ppc.FieldRB), c.record()), llil.NoFlags)
			return
		}
		v := op(&c.Builder, word, c.gpr(ppc.FieldRS), c.gpr(ppc.FieldRB), llil.NoFlags)
		c.set(ppc.FieldRA, c.Not(word, v, c.record()), llil.NoFlags)
	}
}

func andc(c *ctx) {
	notB := c.Not(word, c.gpr(ppc.FieldRB), llil.NoFlags)
	c.set(ppc.FieldRA, c.And(word, c.gpr(ppc.FieldRS), notB, c.record()), llil.NoFlags)
}

// or with rS == rB is mr.
func or(c *ctx) {
	if c.inst.Value(ppc.FieldRS) == c.inst.Value(ppc.FieldRB) {
		c.set(ppc.FieldRA, c.gpr(ppc.FieldRS), c.record())
		return
	}
	c.set(ppc.FieldRA, c.Or(word, c.gpr(ppc.FieldRS), c.gpr(ppc.FieldRB), c.record()), llil.NoFlags)
}

// nor with rS == rB is not.
func nor(c *ctx) {
	if c.inst.Value(ppc.FieldRS) == c.inst.Value(ppc.FieldRB) {
		c.set(ppc.FieldRA, c.Not(word, c.gpr(ppc.FieldRS), c.record()), llil.NoFlags)
		return
	}
	v := c.Or(word, c.gpr(ppc.FieldRS), c.gpr(ppc.FieldRB), llil.NoFlags)
	c.set(ppc.FieldRA, c.Not(word, v, c.record()), llil.NoFlags)
}

// ori 0,0,0 is the preferred nop.
func ori(c *ctx) {
	if c.inst.Word == 0x60000000 {
		c.Emit(c.Nop())
		return
	}
	c.set(ppc.FieldRA, c.Or(word, c.gpr(ppc.FieldRS), c.uimm(ppc.FieldUI), llil.NoFlags), llil.NoFlags)
}

// immLogical lifts rA = rS op UI, with UI in the upper halfword when
// shifted is set. The record forms always write cr0.
func immLogical(op binaryOp, shifted, record bool) template {
	return func(c *ctx) {
		fw := llil.NoFlags
		if record {
			fw = cr0
		}
		ui := c.uimm(ppc.FieldUI)
		if shifted {
			ui = c.shifted(ppc.FieldUI, false)
		}
		c.set(ppc.FieldRA, op(&c.Builder, word, c.gpr(ppc.FieldRS), ui, fw), llil.NoFlags)
	}
}

// extend sign-extends the low size bytes of rS into rA.
func extend(size int) template {
	return func(c *ctx) {
		v := c.SignExtend(word, c.LowPart(size, c.gpr(ppc.FieldRS)))
		c.set(ppc.FieldRA, v, c.record())
	}
}

// sraw and srawi always set xer_ca; the record forms report cr0 instead.
func sraw(c *ctx) {
	c.set(ppc.FieldRA, c.Asr(word, c.gpr(ppc.FieldRS), c.gpr(ppc.FieldRB), c.shiftCarry()), llil.NoFlags)
}

func srawi(c *ctx) {
	c.set(ppc.FieldRA, c.Asr(word, c.gpr(ppc.FieldRS), c.uimm(ppc.FieldSH), c.shiftCarry()), llil.NoFlags)
}

func (c *ctx) shiftCarry() llil.FlagWrite {
	if fw := c.record(); fw != llil.NoFlags {
		return fw
	}
	return xerCA
}

// rlwinm recognizes the shift and rotate idioms before falling back to
// rotate-and-mask.
func rlwinm(c *ctx) {
	sh, mb, me := c.inst.Value(ppc.FieldSH), c.inst.Value(ppc.FieldMB), c.inst.Value(ppc.FieldME)
	rs := c.gpr(ppc.FieldRS)
	fw := c.record()

	var v *llil.Expr
	switch {
	case mb == 0 && me == 31:
		v = c.Rol(word, rs, c.imm(int64(sh)), fw)
	case mb == 0 && sh != 0 && me == 31-sh:
		v = c.Lsl(word, rs, c.imm(int64(sh)), fw)
	case me == 31 && mb != 0 && sh == 32-mb:
		v = c.Lsr(word, rs, c.imm(int64(mb)), fw)
	case sh == 0:
		v = c.And(word, rs, c.imm(int64(rotateMask(mb, me))), fw)
	default:
		rot := c.Rol(word, rs, c.imm(int64(sh)), llil.NoFlags)
		v = c.And(word, rot, c.imm(int64(rotateMask(mb, me))), fw)
	}
	c.set(ppc.FieldRA, v, llil.NoFlags)
}

// compare lifts the cmp family as a subtraction that writes crN.
func compare(signed, immediate bool) template {
	return func(c *ctx) {
		fw := llil.FlagWrite(ppc.CRWrite(c.inst.Value(ppc.FieldBF), signed))
		var rhs *llil.Expr
		switch {
		case !immediate:
			rhs = c.gpr(ppc.FieldRB)
		case signed:
			rhs = c.simm(ppc.FieldSI)
		default:
			rhs = c.uimm(ppc.FieldUI)
		}
		c.Emit(c.Sub(word, c.gpr(ppc.FieldRA), rhs, fw))
	}
}

// loaded reads size bytes at ea, widened to a word.
func (c *ctx) loaded(size int, signed bool, ea *llil.Expr) *llil.Expr {
	v := c.Load(size, ea)
	switch {
	case size == word:
		return v
	case signed:
		return c.SignExtend(word, v)
	}
	return c.ZeroExtend(word, v)
}

func load(size int, signed, update bool) template {
	return func(c *ctx) {
		ea := c.ea(0)
		c.set(ppc.FieldRT, c.loaded(size, signed, ea), llil.NoFlags)
		if update {
			c.set(ppc.FieldRA, ea, llil.NoFlags)
		}
	}
}

func loadX(size int) template {
	return func(c *ctx) {
		c.set(ppc.FieldRT, c.loaded(size, false, c.eaX()), llil.NoFlags)
	}
}

// lmw loads rT..r31 from consecutive words.
func lmw(c *ctx) {
	first := c.inst.Value(ppc.FieldRT)
	for r := first; r <= 31; r++ {
		ea := c.ea(int64(r-first) * word)
		c.setReg(ppc.GPR(r), c.Load(word, ea), llil.NoFlags)
	}
}

// stored is the low size bytes of rS.
func (c *ctx) stored(size int) *llil.Expr {
	v := c.gpr(ppc.FieldRS)
	if size == word {
		return v
	}
	return c.LowPart(size, v)
}

func store(size int, update bool) template {
	return func(c *ctx) {
		ea := c.ea(0)
		c.Emit(c.Store(size, ea, c.stored(size)))
		if update {
			c.set(ppc.FieldRA, ea, llil.NoFlags)
		}
	}
}

func storeX(size int) template {
	return func(c *ctx) {
		c.Emit(c.Store(size, c.eaX(), c.stored(size)))
	}
}

// stmw stores rS..r31 to consecutive words.
func stmw(c *ctx) {
	first := c.inst.Value(ppc.FieldRS)
	for r := first; r <= 31; r++ {
		ea := c.ea(int64(r-first) * word)
		c.Emit(c.Store(word, ea, c.reg(ppc.GPR(r))))
	}
}

func linkKind(c *ctx, otherwise transferKind) transferKind {
	if c.inst.Flag(ppc.FieldLK) {
		return toCall
	}
	return otherwise
}

// b is the unconditional relative or absolute branch.
func b(c *ctx) {
	disp := int64(c.inst.Signed(ppc.FieldLI)) << 2
	c.branch(nil, c.target(disp, c.inst.Flag(ppc.FieldAA)), linkKind(c, toJump))
}

func bc(c *ctx) {
	cond := c.condition(c.inst.Value(ppc.FieldBO), c.inst.Value(ppc.FieldBI))
	disp := int64(c.inst.Signed(ppc.FieldBD)) << 2
	c.branch(cond, c.target(disp, c.inst.Flag(ppc.FieldAA)), linkKind(c, toJump))
}

// bcRegister branches through lr or ctr.
func bcRegister(r ppc.Reg, kind transferKind) template {
	return func(c *ctx) {
		cond := c.condition(c.inst.Value(ppc.FieldBO), c.inst.Value(ppc.FieldBI))
		c.branch(cond, c.reg(r), linkKind(c, kind))
	}
}

func sprReg(c *ctx) ppc.Reg {
	// The decoder only accepts supported SPRs.
	r, _ := ppc.SPRReg(ppc.SPRNumber(c.inst.Value(ppc.FieldSPR)))
	return r
}

func mfspr(c *ctx) {
	c.set(ppc.FieldRT, c.reg(sprReg(c)), llil.NoFlags)
}

func mtspr(c *ctx) {
	r := sprReg(c)
	fw := llil.NoFlags
	if r == ppc.XER {
		fw = xerWrite
	}
	c.setReg(r, c.gpr(ppc.FieldRS), fw)
}
