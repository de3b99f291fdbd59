package ppc

import "fmt"

// Form is the instruction encoding format.
type Form uint8

const (
	FormD Form = iota
	FormB
	FormI
	FormSC
	FormM
	FormX
	FormXL
	FormXO
	FormXFX
)

var formNames = [...]string{
	FormD:   "D",
	FormB:   "B",
	FormI:   "I",
	FormSC:  "SC",
	FormM:   "M",
	FormX:   "X",
	FormXL:  "XL",
	FormXO:  "XO",
	FormXFX: "XFX",
}

func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return "?"
}

// Descriptor describes one instruction encoding: the opcode values that
// select it and the operand fields the lifter consumes.
type Descriptor struct {
	Mnemonic string
	Form     Form
	Primary  uint32
	// Extended is the secondary opcode for primaries 19 and 31. XO-form
	// entries hold the 9-bit value; both OE settings map to them.
	Extended uint32
	Fields   []FieldID
	// valid rejects reserved or invalid forms the opcode alone cannot.
	valid func(w uint32) error
}

func (d *Descriptor) String() string {
	if hasExtended(d.Primary) {
		return fmt.Sprintf("%s (%s-form, opcd %d/%d)", d.Mnemonic, d.Form, d.Primary, d.Extended)
	}
	return fmt.Sprintf("%s (%s-form, opcd %d)", d.Mnemonic, d.Form, d.Primary)
}

func hasExtended(primary uint32) bool {
	return primary == 19 || primary == 31
}

var (
	fieldsD      = []FieldID{FieldRT, FieldRA, FieldSI}
	fieldsDU     = []FieldID{FieldRS, FieldRA, FieldUI}
	fieldsMem    = []FieldID{FieldRT, FieldRA, FieldD}
	fieldsCmpI   = []FieldID{FieldBF, FieldL, FieldRA, FieldSI}
	fieldsCmpLI  = []FieldID{FieldBF, FieldL, FieldRA, FieldUI}
	fieldsCmp    = []FieldID{FieldBF, FieldL, FieldRA, FieldRB}
	fieldsLogic  = []FieldID{FieldRS, FieldRA, FieldRB, FieldRc}
	fieldsUnary  = []FieldID{FieldRS, FieldRA, FieldRc}
	fieldsArith  = []FieldID{FieldRT, FieldRA, FieldRB, FieldOE, FieldRc}
	fieldsArith1 = []FieldID{FieldRT, FieldRA, FieldOE, FieldRc}
	fieldsIdx    = []FieldID{FieldRT, FieldRA, FieldRB}
	fieldsStore  = []FieldID{FieldRS, FieldRA, FieldD}
	fieldsStoreX = []FieldID{FieldRS, FieldRA, FieldRB}
	fieldsCache  = []FieldID{FieldRA, FieldRB}
	fieldsBCReg  = []FieldID{FieldBO, FieldBI, FieldLK}
)

// descriptors is the static instruction table.
var descriptors = []*Descriptor{
	{Mnemonic: "mulli", Form: FormD, Primary: 7, Fields: fieldsD},
	{Mnemonic: "subfic", Form: FormD, Primary: 8, Fields: fieldsD},
	{Mnemonic: "cmpli", Form: FormD, Primary: 10, Fields: fieldsCmpLI, valid: wordCompare},
	{Mnemonic: "cmpi", Form: FormD, Primary: 11, Fields: fieldsCmpI, valid: wordCompare},
	{Mnemonic: "addic", Form: FormD, Primary: 12, Fields: fieldsD},
	{Mnemonic: "addic.", Form: FormD, Primary: 13, Fields: fieldsD},
	{Mnemonic: "addi", Form: FormD, Primary: 14, Fields: fieldsD},
	{Mnemonic: "addis", Form: FormD, Primary: 15, Fields: fieldsD},
	{Mnemonic: "bc", Form: FormB, Primary: 16, Fields: []FieldID{FieldBO, FieldBI, FieldBD, FieldAA, FieldLK}},
	{Mnemonic: "sc", Form: FormSC, Primary: 17, valid: scForm},
	{Mnemonic: "b", Form: FormI, Primary: 18, Fields: []FieldID{FieldLI, FieldAA, FieldLK}},
	{Mnemonic: "rlwinm", Form: FormM, Primary: 21, Fields: []FieldID{FieldRS, FieldRA, FieldSH, FieldMB, FieldME, FieldRc}},
	{Mnemonic: "ori", Form: FormD, Primary: 24, Fields: fieldsDU},
	{Mnemonic: "oris", Form: FormD, Primary: 25, Fields: fieldsDU},
	{Mnemonic: "xori", Form: FormD, Primary: 26, Fields: fieldsDU},
	{Mnemonic: "xoris", Form: FormD, Primary: 27, Fields: fieldsDU},
	{Mnemonic: "andi.", Form: FormD, Primary: 28, Fields: fieldsDU},
	{Mnemonic: "andis.", Form: FormD, Primary: 29, Fields: fieldsDU},
	{Mnemonic: "lwz", Form: FormD, Primary: 32, Fields: fieldsMem},
	{Mnemonic: "lwzu", Form: FormD, Primary: 33, Fields: fieldsMem, valid: loadUpdate},
	{Mnemonic: "lbz", Form: FormD, Primary: 34, Fields: fieldsMem},
	{Mnemonic: "lbzu", Form: FormD, Primary: 35, Fields: fieldsMem, valid: loadUpdate},
	{Mnemonic: "stw", Form: FormD, Primary: 36, Fields: fieldsStore},
	{Mnemonic: "stwu", Form: FormD, Primary: 37, Fields: fieldsStore, valid: storeUpdate},
	{Mnemonic: "stb", Form: FormD, Primary: 38, Fields: fieldsStore},
	{Mnemonic: "stbu", Form: FormD, Primary: 39, Fields: fieldsStore, valid: storeUpdate},
	{Mnemonic: "lhz", Form: FormD, Primary: 40, Fields: fieldsMem},
	{Mnemonic: "lhzu", Form: FormD, Primary: 41, Fields: fieldsMem, valid: loadUpdate},
	{Mnemonic: "lha", Form: FormD, Primary: 42, Fields: fieldsMem},
	{Mnemonic: "lhau", Form: FormD, Primary: 43, Fields: fieldsMem, valid: loadUpdate},
	{Mnemonic: "sth", Form: FormD, Primary: 44, Fields: fieldsStore},
	{Mnemonic: "sthu", Form: FormD, Primary: 45, Fields: fieldsStore, valid: storeUpdate},
	{Mnemonic: "lmw", Form: FormD, Primary: 46, Fields: fieldsMem, valid: loadMultiple},
	{Mnemonic: "stmw", Form: FormD, Primary: 47, Fields: fieldsStore},

	{Mnemonic: "bclr", Form: FormXL, Primary: 19, Extended: 16, Fields: fieldsBCReg},
	{Mnemonic: "isync", Form: FormXL, Primary: 19, Extended: 150},
	{Mnemonic: "bcctr", Form: FormXL, Primary: 19, Extended: 528, Fields: fieldsBCReg, valid: noCTRDecrement},

	{Mnemonic: "cmp", Form: FormX, Primary: 31, Extended: 0, Fields: fieldsCmp, valid: wordCompare},
	{Mnemonic: "subfc", Form: FormXO, Primary: 31, Extended: 8, Fields: fieldsArith},
	{Mnemonic: "addc", Form: FormXO, Primary: 31, Extended: 10, Fields: fieldsArith},
	{Mnemonic: "lwzx", Form: FormX, Primary: 31, Extended: 23, Fields: fieldsIdx},
	{Mnemonic: "slw", Form: FormX, Primary: 31, Extended: 24, Fields: fieldsLogic},
	{Mnemonic: "and", Form: FormX, Primary: 31, Extended: 28, Fields: fieldsLogic},
	{Mnemonic: "cmpl", Form: FormX, Primary: 31, Extended: 32, Fields: fieldsCmp, valid: wordCompare},
	{Mnemonic: "subf", Form: FormXO, Primary: 31, Extended: 40, Fields: fieldsArith},
	{Mnemonic: "dcbst", Form: FormX, Primary: 31, Extended: 54, Fields: fieldsCache},
	{Mnemonic: "andc", Form: FormX, Primary: 31, Extended: 60, Fields: fieldsLogic},
	{Mnemonic: "dcbf", Form: FormX, Primary: 31, Extended: 86, Fields: fieldsCache},
	{Mnemonic: "lbzx", Form: FormX, Primary: 31, Extended: 87, Fields: fieldsIdx},
	{Mnemonic: "neg", Form: FormXO, Primary: 31, Extended: 104, Fields: fieldsArith1, valid: rbZero},
	{Mnemonic: "nor", Form: FormX, Primary: 31, Extended: 124, Fields: fieldsLogic},
	{Mnemonic: "adde", Form: FormXO, Primary: 31, Extended: 138, Fields: fieldsArith},
	{Mnemonic: "stwx", Form: FormX, Primary: 31, Extended: 151, Fields: fieldsStoreX},
	{Mnemonic: "addze", Form: FormXO, Primary: 31, Extended: 202, Fields: fieldsArith1, valid: rbZero},
	{Mnemonic: "stbx", Form: FormX, Primary: 31, Extended: 215, Fields: fieldsStoreX},
	{Mnemonic: "mullw", Form: FormXO, Primary: 31, Extended: 235, Fields: fieldsArith},
	{Mnemonic: "add", Form: FormXO, Primary: 31, Extended: 266, Fields: fieldsArith},
	{Mnemonic: "dcbt", Form: FormX, Primary: 31, Extended: 278, Fields: fieldsCache},
	{Mnemonic: "lhzx", Form: FormX, Primary: 31, Extended: 279, Fields: fieldsIdx},
	{Mnemonic: "eqv", Form: FormX, Primary: 31, Extended: 284, Fields: fieldsLogic},
	{Mnemonic: "xor", Form: FormX, Primary: 31, Extended: 316, Fields: fieldsLogic},
	{Mnemonic: "mfspr", Form: FormXFX, Primary: 31, Extended: 339, Fields: []FieldID{FieldRT, FieldSPR}, valid: knownSPR},
	{Mnemonic: "sthx", Form: FormX, Primary: 31, Extended: 407, Fields: fieldsStoreX},
	{Mnemonic: "or", Form: FormX, Primary: 31, Extended: 444, Fields: fieldsLogic},
	{Mnemonic: "divwu", Form: FormXO, Primary: 31, Extended: 459, Fields: fieldsArith},
	{Mnemonic: "mtspr", Form: FormXFX, Primary: 31, Extended: 467, Fields: []FieldID{FieldRS, FieldSPR}, valid: knownSPR},
	{Mnemonic: "nand", Form: FormX, Primary: 31, Extended: 476, Fields: fieldsLogic},
	{Mnemonic: "divw", Form: FormXO, Primary: 31, Extended: 491, Fields: fieldsArith},
	{Mnemonic: "srw", Form: FormX, Primary: 31, Extended: 536, Fields: fieldsLogic},
	{Mnemonic: "sync", Form: FormX, Primary: 31, Extended: 598},
	{Mnemonic: "sraw", Form: FormX, Primary: 31, Extended: 792, Fields: fieldsLogic},
	{Mnemonic: "srawi", Form: FormX, Primary: 31, Extended: 824, Fields: []FieldID{FieldRS, FieldRA, FieldSH, FieldRc}},
	{Mnemonic: "eieio", Form: FormX, Primary: 31, Extended: 854},
	{Mnemonic: "extsh", Form: FormX, Primary: 31, Extended: 922, Fields: fieldsUnary, valid: rbZero},
	{Mnemonic: "extsb", Form: FormX, Primary: 31, Extended: 954, Fields: fieldsUnary, valid: rbZero},
	{Mnemonic: "icbi", Form: FormX, Primary: 31, Extended: 982, Fields: fieldsCache},
}

// Descriptors returns the instruction table in declaration order.
func Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Constraint checks. Each returns a short reason for rejecting the word.

func wordCompare(w uint32) error {
	if mustField(FieldL, w) != 0 {
		return fmt.Errorf("doubleword compare (L=1) in 32-bit mode")
	}
	return nil
}

func scForm(w uint32) error {
	if w&2 == 0 {
		return fmt.Errorf("sc without the required bit 30")
	}
	return nil
}

func loadUpdate(w uint32) error {
	ra, rt := mustField(FieldRA, w), mustField(FieldRT, w)
	if ra == 0 || ra == rt {
		return fmt.Errorf("invalid update form (ra=%d, rt=%d)", ra, rt)
	}
	return nil
}

func storeUpdate(w uint32) error {
	if mustField(FieldRA, w) == 0 {
		return fmt.Errorf("invalid update form (ra=0)")
	}
	return nil
}

func loadMultiple(w uint32) error {
	ra, rt := mustField(FieldRA, w), mustField(FieldRT, w)
	if ra >= rt {
		return fmt.Errorf("ra=%d inside the loaded range r%d..r31", ra, rt)
	}
	return nil
}

func noCTRDecrement(w uint32) error {
	if mustField(FieldBO, w)&BOIgnoreCTR == 0 {
		return fmt.Errorf("bcctr may not decrement ctr")
	}
	return nil
}

func rbZero(w uint32) error {
	if mustField(FieldRB, w) != 0 {
		return fmt.Errorf("reserved rb field is non-zero")
	}
	return nil
}

func knownSPR(w uint32) error {
	spr := SPRNumber(mustField(FieldSPR, w))
	if _, ok := SPRReg(spr); !ok {
		return fmt.Errorf("unsupported spr %d", spr)
	}
	return nil
}

// BO field bits (value masks, BO0 is the most significant).
const (
	BOIgnoreCond = 0x10
	BOCondTrue   = 0x08
	BOIgnoreCTR  = 0x04
	BOCTRZero    = 0x02
)
