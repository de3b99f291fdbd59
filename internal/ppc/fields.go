package ppc

import "ppcil/internal/bits"

// FieldID names an instruction field as it appears in the PowerPC
// instruction format tables.
type FieldID uint8

const (
	FieldOPCD FieldID = iota
	FieldRT
	FieldRS
	FieldRA
	FieldRB
	FieldBO
	FieldBI
	FieldBF
	FieldL
	FieldSI
	FieldUI
	FieldD
	FieldLI
	FieldBD
	FieldAA
	FieldLK
	FieldSH
	FieldMB
	FieldME
	FieldSPR
	FieldXO
	FieldXO9
	FieldOE
	FieldRc
	numFields
)

var fieldNames = [numFields]string{
	FieldOPCD: "opcd",
	FieldRT:   "rt",
	FieldRS:   "rs",
	FieldRA:   "ra",
	FieldRB:   "rb",
	FieldBO:   "bo",
	FieldBI:   "bi",
	FieldBF:   "bf",
	FieldL:    "l",
	FieldSI:   "si",
	FieldUI:   "ui",
	FieldD:    "d",
	FieldLI:   "li",
	FieldBD:   "bd",
	FieldAA:   "aa",
	FieldLK:   "lk",
	FieldSH:   "sh",
	FieldMB:   "mb",
	FieldME:   "me",
	FieldSPR:  "spr",
	FieldXO:   "xo",
	FieldXO9:  "xo9",
	FieldOE:   "oe",
	FieldRc:   "rc",
}

// fieldLayout holds the MSB0 bit positions of every field.
var fieldLayout = [numFields]bits.Field{
	FieldOPCD: bits.F(0, 5),
	FieldRT:   bits.F(6, 10),
	FieldRS:   bits.F(6, 10),
	FieldRA:   bits.F(11, 15),
	FieldRB:   bits.F(16, 20),
	FieldBO:   bits.F(6, 10),
	FieldBI:   bits.F(11, 15),
	FieldBF:   bits.F(6, 8),
	FieldL:    bits.F(10, 10),
	FieldSI:   bits.F(16, 31),
	FieldUI:   bits.F(16, 31),
	FieldD:    bits.F(16, 31),
	FieldLI:   bits.F(6, 29),
	FieldBD:   bits.F(16, 29),
	FieldAA:   bits.F(30, 30),
	FieldLK:   bits.F(31, 31),
	FieldSH:   bits.F(16, 20),
	FieldMB:   bits.F(21, 25),
	FieldME:   bits.F(26, 30),
	FieldSPR:  bits.F(11, 20),
	FieldXO:   bits.F(21, 30),
	FieldXO9:  bits.F(22, 30),
	FieldOE:   bits.F(21, 21),
	FieldRc:   bits.F(31, 31),
}

func (f FieldID) String() string {
	if f < numFields {
		return fieldNames[f]
	}
	return "field?"
}

// Layout returns the bit range of the field.
func (f FieldID) Layout() bits.Field {
	if f < numFields {
		return fieldLayout[f]
	}
	return bits.Field{}
}

// Extract pulls the field out of w.
func (f FieldID) Extract(w uint32) (uint32, error) {
	return f.Layout().Extract(w)
}

// mustField is for table constraints whose layouts are covered by tests.
func mustField(f FieldID, w uint32) uint32 {
	v, _ := f.Extract(w)
	return v
}
