// Package elfx opens 32-bit big-endian PowerPC ELF executables, locates
// .text, and maps function symbols to their code.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
	"syscall"

	"github.com/ianlancetaylor/demangle"
)

var (
	// ErrNotPPC means the file is ELF but not 32-bit big-endian PowerPC.
	ErrNotPPC = errors.New("not a 32-bit big-endian PowerPC ELF")
	// ErrNoSymbol means no function symbol has the requested name.
	ErrNoSymbol = errors.New("symbol not found")
)

type Image struct {
	Path  string
	File  *elf.File
	All   []byte
	Loads []Seg
	Text  Section
	// Syms are the function symbols, sorted by address.
	Syms []Sym
	f    *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

type Sym struct {
	Name string
	// Demangled is the C++ demangled name, or Name when it is not mangled.
	Demangled string
	Addr      uint64
	Size      uint64
}

func (s Sym) String() string {
	if s.Demangled != s.Name {
		return fmt.Sprintf("%s (%s)", s.Demangled, s.Name)
	}
	return s.Name
}

func checkMachine(f *elf.File) error {
	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2MSB || f.Machine != elf.EM_PPC {
		return fmt.Errorf("%w: %v %v %v", ErrNotPPC, f.Class, f.Data, f.Machine)
	}
	return nil
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	if err := checkMachine(f); err != nil {
		f.Close()
		return nil, err
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	if s := f.Section(".text"); s != nil {
		im.Text = Section{s.Name, s.Addr, s.Offset, s.Size}
	} else {
		// Stripped of section headers: use the first executable segment.
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}

	im.loadSymbols()
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		if err3 := im.File.Close(); err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	return errors.Join(err1, err2)
}

// loadSymbols collects defined function symbols from .symtab, falling
// back to .dynsym for stripped binaries.
func (im *Image) loadSymbols() {
	syms, err := im.File.Symbols()
	if err != nil || len(syms) == 0 {
		syms, _ = im.File.DynamicSymbols()
	}

	seen := make(map[uint64]bool)
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		if seen[s.Value] {
			continue
		}
		seen[s.Value] = true
		im.Syms = append(im.Syms, Sym{
			Name:      s.Name,
			Demangled: demangle.Filter(s.Name),
			Addr:      s.Value,
			Size:      s.Size,
		})
	}
	sort.Slice(im.Syms, func(i, j int) bool { return im.Syms[i].Addr < im.Syms[j].Addr })
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns the mapped bytes of [va, va+size).
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// TextBytes returns the code of .text and its address.
func (im *Image) TextBytes() ([]byte, uint64, error) {
	if im.Text.Size == 0 {
		return nil, 0, errors.New("no executable code")
	}
	b, ok := im.SliceVA(im.Text.VA, im.Text.Size)
	if !ok {
		return nil, 0, fmt.Errorf("%s at 0x%x is not mapped", im.Text.Name, im.Text.VA)
	}
	return b, im.Text.VA, nil
}

// FindFunctionByName looks a function up by its raw or demangled name.
func (im *Image) FindFunctionByName(name string) (Sym, bool) {
	for _, s := range im.Syms {
		if s.Name == name || s.Demangled == name {
			return s, true
		}
	}
	return Sym{}, false
}

// SymbolAt returns the function whose first instruction is at va.
func (im *Image) SymbolAt(va uint64) (Sym, bool) {
	i := sort.Search(len(im.Syms), func(i int) bool { return im.Syms[i].Addr >= va })
	if i < len(im.Syms) && im.Syms[i].Addr == va {
		return im.Syms[i], true
	}
	return Sym{}, false
}

// FunctionBytes returns the code of the named function. A symbol without
// a size extends to the next symbol or the end of .text.
func (im *Image) FunctionBytes(name string) ([]byte, Sym, error) {
	s, ok := im.FindFunctionByName(name)
	if !ok {
		return nil, Sym{}, fmt.Errorf("%w: %s", ErrNoSymbol, name)
	}

	size := s.Size
	if size == 0 {
		end := im.Text.VA + im.Text.Size
		for _, next := range im.Syms {
			if next.Addr > s.Addr {
				end = next.Addr
				break
			}
		}
		if end > s.Addr {
			size = end - s.Addr
		}
	}

	b, ok := im.SliceVA(s.Addr, size)
	if !ok {
		return nil, s, fmt.Errorf("%s: 0x%x+0x%x is not mapped", name, s.Addr, size)
	}
	return b, s, nil
}
