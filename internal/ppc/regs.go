package ppc

import "fmt"

// Reg is an architectural register.
type Reg uint8

// General purpose registers occupy 0..31.
const (
	R0  Reg = 0
	R1  Reg = 1
	R31 Reg = 31

	LR  Reg = 32
	CTR Reg = 33
	XER Reg = 34
)

// GPR returns general purpose register n.
func GPR(n uint32) Reg { return Reg(n & 31) }

func (r Reg) String() string {
	switch {
	case r <= R31:
		return fmt.Sprintf("r%d", uint8(r))
	case r == LR:
		return "lr"
	case r == CTR:
		return "ctr"
	case r == XER:
		return "xer"
	}
	return fmt.Sprintf("reg%d", uint8(r))
}

// Special purpose register numbers understood by mfspr/mtspr.
const (
	SPRXER = 1
	SPRLR  = 8
	SPRCTR = 9
)

// SPRNumber undoes the split encoding of the spr field (the two 5-bit
// halves are stored swapped).
func SPRNumber(raw uint32) uint32 {
	return (raw>>5)&0x1f | (raw&0x1f)<<5
}

// SPRReg maps a supported SPR number to its register.
func SPRReg(spr uint32) (Reg, bool) {
	switch spr {
	case SPRXER:
		return XER, true
	case SPRLR:
		return LR, true
	case SPRCTR:
		return CTR, true
	}
	return 0, false
}

var crBitNames = [4]string{"lt", "gt", "eq", "so"}

// CRBit names condition register bit bi (0..31). cr0 bits have bare names,
// the rest are prefixed with their field.
func CRBit(bi uint32) string {
	field, bit := (bi&31)/4, bi&3
	if field == 0 {
		return crBitNames[bit]
	}
	return fmt.Sprintf("cr%d_%s", field, crBitNames[bit])
}

// Fixed-point exception register flags.
const (
	FlagXERSO = "xer_so"
	FlagXEROV = "xer_ov"
	FlagXERCA = "xer_ca"
)

// Flag write groups.
const (
	WriteXER     = "xer"
	WriteXERCA   = "xer_ca"
	WriteXEROVSO = "xer_ov_so"
)

// CRWrite names the flag write group that updates condition register
// field n from a signed or unsigned comparison.
func CRWrite(n uint32, signed bool) string {
	if signed {
		return fmt.Sprintf("cr%d_signed", n&7)
	}
	return fmt.Sprintf("cr%d_unsigned", n&7)
}
