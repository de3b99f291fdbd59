// Package disasm produces reference disassembly for PowerPC words. The
// text comes from golang.org/x/arch in GNU syntax and is shown next to the
// lifted IL; the lifter never depends on it.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// WordSize is the width of every instruction handled here.
const WordSize = 4

// Inst is a simplified decoded instruction.
type Inst struct {
	VA   uint64  // virtual address of instruction
	Text string  // GNU-syntax disassembly
	Op   string  // mnemonic in lowercase
	Raw  [4]byte // big-endian encoding
	// Known is false when the reference decoder rejected the word. Text is
	// then a .long directive.
	Known bool
}

// Word returns the encoding as an integer.
func (i Inst) Word() uint32 { return binary.BigEndian.Uint32(i.Raw[:]) }

// Stream is a linear sequence of instructions.
type Stream []Inst

// Decode disassembles the first four bytes of raw as the instruction at va.
func Decode(va uint64, raw []byte) (Inst, error) {
	if len(raw) < WordSize {
		return Inst{}, fmt.Errorf("disasm: %d bytes at 0x%x, need %d", len(raw), va, WordSize)
	}
	in := Inst{VA: va}
	copy(in.Raw[:], raw)

	dec, err := ppc64asm.Decode(raw[:WordSize], binary.BigEndian)
	if err != nil || dec.Op == 0 {
		in.Text = fmt.Sprintf(".long 0x%08x", in.Word())
		in.Op = ".long"
		return in, nil
	}
	in.Known = true
	in.Text = ppc64asm.GNUSyntax(dec, va)
	if f := strings.Fields(in.Text); len(f) > 0 {
		in.Op = strings.ToLower(f[0])
	}
	return in, nil
}

// Disassemble decodes code as consecutive words starting at base. A
// trailing partial word is left for the caller.
func Disassemble(base uint64, code []byte) Stream {
	out := make(Stream, 0, len(code)/WordSize)
	for off := 0; off+WordSize <= len(code); off += WordSize {
		in, _ := Decode(base+uint64(off), code[off : off+WordSize])
		out = append(out, in)
	}
	return out
}
