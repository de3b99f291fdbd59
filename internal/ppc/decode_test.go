package ppc

import (
	"errors"
	"math/rand"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		mnemonic string
		display  string
		fields   map[FieldID]uint32
	}{
		{
			name:     "li r3,100",
			word:     0x38600064,
			mnemonic: "addi",
			display:  "addi",
			fields:   map[FieldID]uint32{FieldRT: 3, FieldRA: 0, FieldSI: 100},
		},
		{
			name:     "add r3,r4,r5",
			word:     0x7C642A14,
			mnemonic: "add",
			display:  "add",
			fields:   map[FieldID]uint32{FieldRT: 3, FieldRA: 4, FieldRB: 5, FieldOE: 0, FieldRc: 0},
		},
		{
			name:     "addo. r3,r4,r5",
			word:     0x7C642E15,
			mnemonic: "add",
			display:  "addo.",
			fields:   map[FieldID]uint32{FieldRT: 3, FieldRA: 4, FieldRB: 5, FieldOE: 1, FieldRc: 1},
		},
		{
			name:     "cmpw cr7,r9,r10",
			word:     0x7F895000,
			mnemonic: "cmp",
			display:  "cmp",
			fields:   map[FieldID]uint32{FieldBF: 7, FieldL: 0, FieldRA: 9, FieldRB: 10},
		},
		{
			name:     "mflr r0",
			word:     0x7C0802A6,
			mnemonic: "mfspr",
			display:  "mfspr",
			fields:   map[FieldID]uint32{FieldRT: 0, FieldSPR: 256},
		},
		{
			name:     "bl .+0x10",
			word:     0x48000011,
			mnemonic: "b",
			display:  "b",
			fields:   map[FieldID]uint32{FieldLI: 4, FieldAA: 0, FieldLK: 1},
		},
		{
			name:     "beq cr0,.+8",
			word:     0x41820008,
			mnemonic: "bc",
			display:  "bc",
			fields:   map[FieldID]uint32{FieldBO: 12, FieldBI: 2, FieldBD: 2},
		},
		{
			name:     "sync",
			word:     0x7C0004AC,
			mnemonic: "sync",
			display:  "sync",
			fields:   map[FieldID]uint32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := Decode(tt.word)
			if err != nil {
				t.Fatalf("Decode(%#08x) error: %v", tt.word, err)
			}
			if got := inst.Mnemonic(); got != tt.mnemonic {
				t.Errorf("Mnemonic() = %q, want %q", got, tt.mnemonic)
			}
			if got := inst.Name(); got != tt.display {
				t.Errorf("Name() = %q, want %q", got, tt.display)
			}
			for f, want := range tt.fields {
				got, ok := inst.Get(f)
				if !ok {
					t.Errorf("field %s missing from %s", f, inst)
					continue
				}
				if got != want {
					t.Errorf("field %s = %d, want %d", f, got, want)
				}
			}
		})
	}
}

func TestDecodeUnrecognized(t *testing.T) {
	tests := []struct {
		name string
		word uint32
	}{
		{"all zero word", 0x00000000},
		{"all ones word", 0xFFFFFFFF},
		{"unassigned primary", 0x04000000},
		{"unknown extended opcode", 0x7C000008},
		{"doubleword compare", 0x7C232000},
		{"unsupported spr", 0x7C1042A6},
		{"lwzu with ra == rt", 0x84630004},
		{"stwu with ra == 0", 0x94600004},
		{"lmw with ra in range", 0xBBDEFFF8},
		{"bcctr decrementing ctr", 0x4C000420},
		{"sc without bit 30", 0x44000000},
		{"extsb with reserved rb", 0x7C830774 | 1<<11},
		{"lwzx with Rc set", 0x7C64282F},
		{"stwx with Rc set", 0x7C64292F},
		{"mfspr with bit 31 set", 0x7C0802A7},
		{"sync with bit 31 set", 0x7C0004AD},
		{"isync with bit 31 set", 0x4C00012D},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := Decode(tt.word)
			if !errors.Is(err, ErrUnrecognizedEncoding) {
				t.Fatalf("Decode(%#08x) = %v, %v; want ErrUnrecognizedEncoding", tt.word, inst, err)
			}
			var ue *UnrecognizedError
			if !errors.As(err, &ue) {
				t.Fatalf("error %T is not *UnrecognizedError", err)
			}
			if ue.Word != tt.word {
				t.Errorf("UnrecognizedError.Word = %#08x, want %#08x", ue.Word, tt.word)
			}
			if inst.Desc != nil {
				t.Errorf("Decode returned descriptor %s alongside an error", inst.Desc)
			}
		})
	}
}

// Every word must produce either a descriptor or ErrUnrecognizedEncoding.
func TestDecodeTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5050C))
	samples := 200000
	if testing.Short() {
		samples = 20000
	}

	var recognized int
	check := func(w uint32) {
		inst, err := Decode(w)
		switch {
		case err == nil:
			if inst.Desc == nil {
				t.Fatalf("Decode(%#08x) returned no descriptor and no error", w)
			}
			if len(inst.Args) != len(inst.Desc.Fields) {
				t.Fatalf("Decode(%#08x) extracted %d fields, descriptor lists %d", w, len(inst.Args), len(inst.Desc.Fields))
			}
			recognized++
		case errors.Is(err, ErrUnrecognizedEncoding):
		default:
			t.Fatalf("Decode(%#08x) returned unexpected error class: %v", w, err)
		}
	}

	for i := 0; i < samples; i++ {
		check(rng.Uint32())
	}
	// Also walk every primary opcode with and without a populated extended field.
	for p := uint32(0); p < 64; p++ {
		for xo := uint32(0); xo < 1024; xo++ {
			check(p<<26 | xo<<1)
		}
	}

	if recognized == 0 {
		t.Fatal("no sampled word was recognized")
	}
}

func TestDecodeBytes(t *testing.T) {
	inst, err := DecodeBytes([]byte{0x38, 0x60, 0x00, 0x64})
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	if inst.Word != 0x38600064 {
		t.Errorf("Word = %#08x, want 0x38600064", inst.Word)
	}

	for _, b := range [][]byte{nil, {0x38}, {0x38, 0x60, 0x00, 0x64, 0x00}} {
		if _, err := DecodeBytes(b); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("DecodeBytes(% x) error = %v, want ErrMalformedInput", b, err)
		}
	}
}

func TestSigned(t *testing.T) {
	// addi r3,r3,-1
	inst, err := Decode(0x3863FFFF)
	if err != nil {
		t.Fatal(err)
	}
	if got := inst.Signed(FieldSI); got != -1 {
		t.Errorf("Signed(si) = %d, want -1", got)
	}
	if got := inst.Value(FieldSI); got != 0xFFFF {
		t.Errorf("Value(si) = %#x, want 0xffff", got)
	}
}

func TestBuildIndexRejectsCollisions(t *testing.T) {
	dup := []*Descriptor{
		{Mnemonic: "one", Form: FormD, Primary: 14},
		{Mnemonic: "two", Form: FormD, Primary: 14},
	}
	if _, err := buildIndex(dup); err == nil {
		t.Error("buildIndex accepted two descriptors for the same primary opcode")
	}

	// An XO-form entry claims both OE settings.
	xo := []*Descriptor{
		{Mnemonic: "add", Form: FormXO, Primary: 31, Extended: 266},
		{Mnemonic: "clash", Form: FormX, Primary: 31, Extended: 266 | 1<<9},
	}
	if _, err := buildIndex(xo); err == nil {
		t.Error("buildIndex accepted an X-form entry overlapping an XO-form OE variant")
	}

	bad := []*Descriptor{
		{Mnemonic: "bad", Form: FormD, Primary: 14, Fields: []FieldID{numFields}},
	}
	if _, err := buildIndex(bad); err == nil {
		t.Error("buildIndex accepted an out of range field")
	}
}

func TestRegisterNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{GPR(3).String(), "r3"},
		{GPR(31).String(), "r31"},
		{LR.String(), "lr"},
		{CTR.String(), "ctr"},
		{XER.String(), "xer"},
		{CRBit(2), "eq"},
		{CRBit(0), "lt"},
		{CRBit(29), "cr7_gt"},
		{CRBit(7), "cr1_so"},
		{CRWrite(0, true), "cr0_signed"},
		{CRWrite(7, false), "cr7_unsigned"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}

	if spr := SPRNumber(256); spr != SPRLR {
		t.Errorf("SPRNumber(256) = %d, want %d", spr, SPRLR)
	}
	if spr := SPRNumber(288); spr != SPRCTR {
		t.Errorf("SPRNumber(288) = %d, want %d", spr, SPRCTR)
	}
}
