package elfx

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	base    = 0x10000000
	textOff = 52 + 32
)

var code = []byte{
	0x38, 0x60, 0x00, 0x64, // li r3,100
	0x4e, 0x80, 0x00, 0x20, // blr
	0x60, 0x00, 0x00, 0x00, // nop
	0x4e, 0x80, 0x00, 0x20, // blr
}

// writeELF builds a minimal executable with one PT_LOAD segment, a .text
// section and two function symbols: _start (sized) and a mangled C++
// function without a size.
func writeELF(t *testing.T, machine elf.Machine) string {
	t.Helper()
	be := binary.BigEndian

	strtab := []byte("\x00_start\x00_ZN3foo3barEv\x00")
	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	syms := []elf.Sym32{
		{},
		{Name: 1, Value: base + textOff, Size: 8, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 1},
		{Name: 8, Value: base + textOff + 8, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 1},
	}

	symOff := uint32(textOff + len(code))
	strOff := symOff + uint32(len(syms)*16)
	shstrOff := strOff + uint32(len(strtab))
	shOff := (shstrOff + uint32(len(shstrtab)) + 3) &^ 3

	var buf bytes.Buffer
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     base + textOff,
		Phoff:     52,
		Shoff:     shOff,
		Ehsize:    52,
		Phentsize: 32,
		Phnum:     1,
		Shentsize: 40,
		Shnum:     5,
		Shstrndx:  4,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	binary.Write(&buf, be, hdr)

	binary.Write(&buf, be, elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Vaddr:  base,
		Paddr:  base,
		Filesz: symOff,
		Memsz:  symOff,
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Align:  4,
	})
	buf.Write(code)
	for _, s := range syms {
		binary.Write(&buf, be, s)
	}
	buf.Write(strtab)
	buf.Write(shstrtab)
	for uint32(buf.Len()) < shOff {
		buf.WriteByte(0)
	}

	sections := []elf.Section32{
		{},
		{Name: 1, Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr: base + textOff, Off: textOff, Size: uint32(len(code)), Addralign: 4},
		{Name: 7, Type: uint32(elf.SHT_SYMTAB), Off: symOff, Size: uint32(len(syms) * 16),
			Link: 3, Info: 1, Addralign: 4, Entsize: 16},
		{Name: 15, Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint32(len(strtab)), Addralign: 1},
		{Name: 23, Type: uint32(elf.SHT_STRTAB), Off: shstrOff, Size: uint32(len(shstrtab)), Addralign: 1},
	}
	for _, s := range sections {
		binary.Write(&buf, be, s)
	}

	path := filepath.Join(t.TempDir(), "prog.elf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTest(t *testing.T) *Image {
	t.Helper()
	im, err := Open(writeELF(t, elf.EM_PPC))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { im.Close() })
	return im
}

func TestOpenText(t *testing.T) {
	im := openTest(t)

	b, va, err := im.TextBytes()
	if err != nil {
		t.Fatal(err)
	}
	if va != base+textOff || !bytes.Equal(b, code) {
		t.Errorf("TextBytes = % x at 0x%x", b, va)
	}
	if len(im.Syms) != 2 {
		t.Fatalf("got %d symbols, want 2", len(im.Syms))
	}
}

func TestOpenRejectsOtherMachines(t *testing.T) {
	_, err := Open(writeELF(t, elf.EM_ARM))
	if !errors.Is(err, ErrNotPPC) {
		t.Errorf("err = %v, want ErrNotPPC", err)
	}
}

func TestFunctionBytes(t *testing.T) {
	im := openTest(t)

	b, s, err := im.FunctionBytes("_start")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, code[:8]) || s.Addr != base+textOff {
		t.Errorf("_start = % x at 0x%x", b, s.Addr)
	}

	// Unsized symbol runs to the end of .text, found by demangled name.
	b, s, err = im.FunctionBytes("foo::bar()")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, code[8:]) || s.Name != "_ZN3foo3barEv" {
		t.Errorf("foo::bar() = % x (%v)", b, s)
	}

	if _, _, err := im.FunctionBytes("missing"); !errors.Is(err, ErrNoSymbol) {
		t.Errorf("missing symbol err = %v", err)
	}
}

func TestSymbolAt(t *testing.T) {
	im := openTest(t)
	if s, ok := im.SymbolAt(base + textOff + 8); !ok || s.Demangled != "foo::bar()" {
		t.Errorf("SymbolAt = %v, %v", s, ok)
	}
	if _, ok := im.SymbolAt(base + textOff + 4); ok {
		t.Error("SymbolAt found a symbol mid-function")
	}
}

func TestSliceVA(t *testing.T) {
	im := openTest(t)
	if _, ok := im.SliceVA(0x1000, 4); ok {
		t.Error("unmapped address sliced")
	}
	if b, ok := im.SliceVA(base+textOff+4, 4); !ok || !bytes.Equal(b, code[4:8]) {
		t.Errorf("SliceVA = % x, %v", b, ok)
	}
}
