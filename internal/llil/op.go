package llil

// Op is an IL operation kind.
type Op uint8

const (
	OpNop Op = iota
	OpUndef
	OpSyscall
	OpSetReg
	OpReg
	OpConst
	OpConstPtr
	OpFlag
	OpAdd
	OpAdc
	OpSub
	OpAnd
	OpOr
	OpXor
	OpLsl
	OpLsr
	OpAsr
	OpRol
	OpMul
	OpDivs
	OpDivu
	OpNeg
	OpNot
	OpSx
	OpZx
	OpLowPart
	OpCmpE
	OpCmpNe
	OpLoad
	OpStore
	OpJump
	OpCall
	OpRet
	OpIf
	numOps
)

type slot uint8

const (
	slotExpr slot = iota
	slotReg
	slotFlag
	slotInt
)

func (s slot) String() string {
	switch s {
	case slotExpr:
		return "expression"
	case slotReg:
		return "register"
	case slotFlag:
		return "flag"
	case slotInt:
		return "integer"
	}
	return "?"
}

type opInfo struct {
	name  string
	slots []slot
	// flagged kinds carry a flag write slot, possibly empty.
	flagged bool
}

var (
	noSlots    = []slot{}
	unarySlots = []slot{slotExpr}
	binSlots   = []slot{slotExpr, slotExpr}
)

var ops = [numOps]opInfo{
	OpNop:      {"LLIL_NOP", noSlots, true},
	OpUndef:    {"LLIL_UNDEF", noSlots, true},
	OpSyscall:  {"LLIL_SYSCALL", noSlots, true},
	OpSetReg:   {"LLIL_SET_REG", []slot{slotReg, slotExpr}, true},
	OpReg:      {"LLIL_REG", []slot{slotReg}, false},
	OpConst:    {"LLIL_CONST", []slot{slotInt}, false},
	OpConstPtr: {"LLIL_CONST_PTR", []slot{slotInt}, false},
	OpFlag:     {"LLIL_FLAG", []slot{slotFlag}, false},
	OpAdd:      {"LLIL_ADD", binSlots, true},
	OpAdc:      {"LLIL_ADC", []slot{slotExpr, slotExpr, slotExpr}, true},
	OpSub:      {"LLIL_SUB", binSlots, true},
	OpAnd:      {"LLIL_AND", binSlots, true},
	OpOr:       {"LLIL_OR", binSlots, true},
	OpXor:      {"LLIL_XOR", binSlots, true},
	OpLsl:      {"LLIL_LSL", binSlots, true},
	OpLsr:      {"LLIL_LSR", binSlots, true},
	OpAsr:      {"LLIL_ASR", binSlots, true},
	OpRol:      {"LLIL_ROL", binSlots, true},
	OpMul:      {"LLIL_MUL", binSlots, true},
	OpDivs:     {"LLIL_DIVS", binSlots, true},
	OpDivu:     {"LLIL_DIVU", binSlots, true},
	OpNeg:      {"LLIL_NEG", unarySlots, true},
	OpNot:      {"LLIL_NOT", unarySlots, true},
	OpSx:       {"LLIL_SX", unarySlots, true},
	OpZx:       {"LLIL_ZX", unarySlots, true},
	OpLowPart:  {"LLIL_LOW_PART", unarySlots, true},
	OpCmpE:     {"LLIL_CMP_E", binSlots, true},
	OpCmpNe:    {"LLIL_CMP_NE", binSlots, true},
	OpLoad:     {"LLIL_LOAD", unarySlots, true},
	OpStore:    {"LLIL_STORE", binSlots, true},
	OpJump:     {"LLIL_JUMP", unarySlots, true},
	OpCall:     {"LLIL_CALL", unarySlots, true},
	OpRet:      {"LLIL_RET", unarySlots, true},
	OpIf:       {"LLIL_IF", []slot{slotExpr, slotInt, slotInt}, true},
}

func (op Op) valid() bool { return op < numOps }

func (op Op) String() string {
	if op.valid() {
		return ops[op].name
	}
	return "LLIL_INVALID"
}

// Arity is the number of operands the kind takes.
func (op Op) Arity() int {
	if !op.valid() {
		return 0
	}
	return len(ops[op].slots)
}

// HasFlags reports whether the kind carries a flag write slot.
func (op Op) HasFlags() bool {
	return op.valid() && ops[op].flagged
}

// IsConst reports whether the kind holds a literal constant.
func (op Op) IsConst() bool {
	return op == OpConst || op == OpConstPtr
}
