// Package lift turns decoded PowerPC instructions into LLIL sequences.
package lift

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"ppcil/internal/llil"
	"ppcil/internal/logging"
	"ppcil/internal/ppc"
)

// ErrMissingTemplate means a descriptor decoded but has no semantics
// attached. It indicates a defect in the instruction tables, not in the
// input.
var ErrMissingTemplate = errors.New("no semantic template")

// Lifter lifts single instructions. The zero value is ready to use and is
// safe for concurrent use.
type Lifter struct {
	// Logger receives debug events. Nil disables logging.
	Logger *log.Logger

	templates map[string]template
}

// New returns a Lifter that logs when PPCIL_LOG_LEVEL=debug.
func New() *Lifter {
	l := &Lifter{}
	if logging.IsDebug() {
		l.Logger = logging.NewLogger().Logger
	}
	return l
}

var std = &Lifter{}

// Lift lifts one instruction located at address 0.
func Lift(b []byte) (llil.Sequence, error) {
	return std.LiftAt(0, b)
}

// LiftAt lifts the four-byte big-endian instruction b located at addr.
// Branch targets are computed relative to addr.
func (l *Lifter) LiftAt(addr uint32, b []byte) (llil.Sequence, error) {
	inst, err := ppc.DecodeBytes(b)
	if err != nil {
		l.debug("decode failed", "addr", fmt.Sprintf("0x%08x", addr), "bytes", fmt.Sprintf("% x", b), "err", err)
		return nil, err
	}
	return l.LiftInst(addr, inst)
}

// LiftInst lifts an already decoded instruction.
func (l *Lifter) LiftInst(addr uint32, inst ppc.Inst) (llil.Sequence, error) {
	if inst.Desc == nil {
		return nil, &ppc.UnrecognizedError{Word: inst.Word, Reason: "instruction was not decoded"}
	}

	tmpl, ok := l.lookup(inst.Desc.Mnemonic)
	if !ok {
		l.debug("missing template", "mnemonic", inst.Desc.Mnemonic, "word", fmt.Sprintf("0x%08x", inst.Word))
		return nil, fmt.Errorf("%w: %s", ErrMissingTemplate, inst.Desc)
	}

	c := &ctx{inst: inst, addr: addr}
	tmpl(c)
	if !c.terminal {
		c.Emit(c.Undef())
	}

	seq, err := c.Sequence()
	if err != nil {
		return nil, fmt.Errorf("lift %s at 0x%08x: %w", inst.Name(), addr, err)
	}
	l.debug("lifted", "addr", fmt.Sprintf("0x%08x", addr), "inst", inst.Name(), "ops", len(seq))
	return seq, nil
}

func (l *Lifter) lookup(mnemonic string) (template, bool) {
	set := l.templates
	if set == nil {
		set = templates
	}
	t, ok := set[mnemonic]
	return t, ok
}

func (l *Lifter) debug(msg string, keyvals ...interface{}) {
	if l.Logger != nil {
		l.Logger.Debug(msg, keyvals...)
	}
}

// CheckTemplates reports every descriptor in the decoder table that has
// no template.
func CheckTemplates() error {
	var errs []error
	for _, d := range ppc.Descriptors() {
		if _, ok := templates[d.Mnemonic]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingTemplate, d))
		}
	}
	return errors.Join(errs...)
}
