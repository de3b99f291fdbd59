package cmd

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"ppcil/internal/disasm"
	"ppcil/internal/elfx"
	"ppcil/internal/golden"
	"ppcil/internal/harness"
	"ppcil/internal/lift"
	"ppcil/internal/llil"
	"ppcil/internal/ppcil/styles"
	"ppcil/internal/ui/colorize"
)

// errNothingLifted is returned when no input word could be lifted.
var errNothingLifted = errors.New("no instruction could be lifted")

var liftCmd = &cobra.Command{
	Use:   "lift [hex...]",
	Short: "Lift instructions to LLIL",
	Long: `Lift instructions and print each word's address, bytes, reference
disassembly and canonical LLIL. Words come from hex arguments, a raw
big-endian file, or an ELF executable.`,
	Example: `
# Lift two words at 0x1000
ppcil lift --addr 0x1000 38600064 4e800020

# Lift a raw dump and show trees
ppcil lift --file code.bin --tree

# Lift a function from a PowerPC executable
ppcil lift --elf a.out --symbol main

# Turn words into corpus entries
ppcil lift --case 38600064 > corpus.yaml
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		stop, err := startProfile(cmd)
		if err != nil {
			return err
		}
		defer stop()

		src, err := liftSource(cmd, args)
		if err != nil {
			return err
		}
		tree, _ := cmd.Flags().GetBool("tree")
		keep, _ := cmd.Flags().GetBool("keep-undef")
		asJSON, _ := cmd.Flags().GetBool("json")
		asCase, _ := cmd.Flags().GetBool("case")

		rows := liftAll(lift.New(), src)

		out := cmd.OutOrStdout()
		switch {
		case asCase:
			err = writeCases(out, rows)
		case asJSON:
			err = writeRowsJSON(out, rows, keep)
		default:
			err = writeRows(out, rows, src.labels, keep, tree, color())
		}
		if err != nil {
			return err
		}

		for _, r := range rows {
			if r.err == nil {
				return nil
			}
		}
		return errNothingLifted
	},
}

func init() {
	liftCmd.Flags().String("addr", "0", "Address of the first word")
	liftCmd.Flags().String("file", "", "Raw big-endian instruction file")
	liftCmd.Flags().String("elf", "", "PowerPC ELF executable")
	liftCmd.Flags().String("symbol", "", "Function to lift from --elf (default all of .text)")
	liftCmd.Flags().BoolP("tree", "t", false, "Show the tree rendering of each result")
	liftCmd.Flags().Bool("keep-undef", false, "Keep the trailing LLIL_UNDEF")
	liftCmd.Flags().BoolP("json", "j", false, "Output one JSON object per word")
	liftCmd.Flags().Bool("case", false, "Output a YAML corpus of the lifted words")
	liftCmd.MarkFlagsMutuallyExclusive("file", "elf")
	liftCmd.MarkFlagsMutuallyExclusive("json", "case")
}

type source struct {
	base   uint64
	code   []byte
	labels map[uint64]string
}

func liftSource(cmd *cobra.Command, args []string) (source, error) {
	addrFlag, _ := cmd.Flags().GetString("addr")
	file, _ := cmd.Flags().GetString("file")
	elfPath, _ := cmd.Flags().GetString("elf")
	symbol, _ := cmd.Flags().GetString("symbol")

	base, err := strconv.ParseUint(addrFlag, 0, 32)
	if err != nil {
		return source{}, fmt.Errorf("bad --addr %q: %w", addrFlag, err)
	}
	if symbol != "" && elfPath == "" {
		return source{}, errors.New("--symbol needs --elf")
	}

	switch {
	case elfPath != "":
		if len(args) > 0 {
			return source{}, errors.New("hex arguments cannot be combined with --elf")
		}
		return elfSource(elfPath, symbol)
	case file != "":
		if len(args) > 0 {
			return source{}, errors.New("hex arguments cannot be combined with --file")
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return source{}, err
		}
		return source{base: base, code: b}, nil
	}

	if len(args) == 0 {
		return source{}, errors.New("no input: give hex words, --file or --elf")
	}
	var code []byte
	for _, a := range args {
		b, err := golden.ParseHex(a)
		if err != nil {
			return source{}, fmt.Errorf("bad hex %q: %w", a, err)
		}
		code = append(code, b...)
	}
	return source{base: base, code: code}, nil
}

func elfSource(path, symbol string) (source, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return source{}, err
	}
	defer im.Close()

	var (
		code []byte
		base uint64
	)
	if symbol != "" {
		b, s, err := im.FunctionBytes(symbol)
		if err != nil {
			return source{}, err
		}
		code, base = b, s.Addr
	} else {
		code, base, err = im.TextBytes()
		if err != nil {
			return source{}, err
		}
	}

	labels := make(map[uint64]string)
	for off := 0; off < len(code); off += disasm.WordSize {
		if s, ok := im.SymbolAt(base + uint64(off)); ok {
			labels[s.Addr] = s.String()
		}
	}
	// The mapping goes away with Close.
	return source{base: base, code: append([]byte(nil), code...), labels: labels}, nil
}

type row struct {
	inst disasm.Inst
	seq  llil.Sequence
	err  error
}

func liftAll(l *lift.Lifter, src source) []row {
	stream := disasm.Disassemble(src.base, src.code)
	rows := make([]row, 0, len(stream)+1)
	add := func(inst disasm.Inst, word []byte) {
		seq, err := l.LiftAt(uint32(inst.VA), word)
		if err != nil {
			slog.Debug("lift failed", "addr", fmt.Sprintf("0x%08x", inst.VA), "err", err)
		}
		rows = append(rows, row{inst: inst, seq: seq, err: err})
	}
	for _, inst := range stream {
		add(inst, inst.Raw[:])
	}

	// A short tail still gets a row so the malformed word is reported.
	if off := len(stream) * disasm.WordSize; off < len(src.code) {
		inst := disasm.Inst{VA: src.base + uint64(off), Text: "?"}
		copy(inst.Raw[:], src.code[off:])
		add(inst, src.code[off:])
	}
	return rows
}

func ilText(seq llil.Sequence, keep bool) string {
	s := llil.Canonical(seq)
	if !keep {
		s = llil.TrimTerminator(s)
	}
	return s
}

func writeRows(w io.Writer, rows []row, labels map[uint64]string, keep, tree, styled bool) error {
	st := styles.Default()
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}
	pr := llil.Printer{Trim: !keep}

	for _, r := range rows {
		if name, ok := labels[r.inst.VA]; ok {
			if _, err := fmt.Fprintf(w, "\n%s:\n", paint(st.Pass, name)); err != nil {
				return err
			}
		}

		asm := fmt.Sprintf("%-28s", r.inst.Text)
		if styled {
			asm = colorize.Assembly(asm)
		}
		_, err := fmt.Fprintf(w, "%s  %s  %s ",
			paint(st.Address, fmt.Sprintf("%08x", r.inst.VA)),
			paint(st.Label, hex.EncodeToString(r.inst.Raw[:])),
			asm)
		if err != nil {
			return err
		}

		switch {
		case r.err != nil:
			_, err = io.WriteString(w, paint(st.Fail, r.err.Error()))
		case styled:
			_, err = io.WriteString(w, colorize.IL(ilText(r.seq, keep)))
		default:
			err = pr.WriteSequence(w, r.seq)
		}
		if err == nil {
			_, err = io.WriteString(w, "\n")
		}
		if err != nil {
			return err
		}

		if tree && r.err == nil {
			if _, err := fmt.Fprintln(w, paint(st.Tree, llil.Tree(ilText(r.seq, keep)))); err != nil {
				return err
			}
		}
	}
	return nil
}

type liftJSON struct {
	Addr   string `json:"addr"`
	Bytes  string `json:"bytes"`
	Disasm string `json:"disasm"`
	IL     string `json:"il,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeRowsJSON(w io.Writer, rows []row, keep bool) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		out := liftJSON{
			Addr:   fmt.Sprintf("0x%08x", r.inst.VA),
			Bytes:  hex.EncodeToString(r.inst.Raw[:]),
			Disasm: r.inst.Text,
		}
		if r.err != nil {
			out.Error = r.err.Error()
		} else {
			out.IL = ilText(r.seq, keep)
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// writeCases emits the successfully lifted rows as corpus entries.
func writeCases(w io.Writer, rows []row) error {
	var cases []harness.Case
	for _, r := range rows {
		if r.err != nil {
			continue
		}
		cases = append(cases, harness.Case{
			Name:     r.inst.Text,
			Addr:     uint32(r.inst.VA),
			Input:    append([]byte(nil), r.inst.Raw[:]...),
			Expected: ilText(r.seq, false),
		})
	}
	return golden.Write(w, cases)
}
