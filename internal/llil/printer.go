package llil

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// Separator joins operations in a canonical sequence string.
const Separator = "; "

// Terminator is the canonical text of a trailing LLIL_UNDEF.
const Terminator = Separator + "LLIL_UNDEF{none}()"

// SizeSuffix returns the canonical size suffix: ".b", ".w", ".d", ".q",
// ".o", or "" for unsized operations.
func SizeSuffix(size int) string {
	switch size {
	case 1:
		return ".b"
	case 2:
		return ".w"
	case 4:
		return ".d"
	case 8:
		return ".q"
	case 16:
		return ".o"
	}
	return ""
}

var twoTo128 = new(big.Int).Lsh(big.NewInt(1), 128)

// FormatConst renders a literal the way the printer does: uppercase hex of
// v modulo 2^(8*size) for sized constants, decimal otherwise.
func FormatConst(v int64, size int) string {
	switch {
	case size == 0:
		return strconv.FormatInt(v, 10)
	case size == 16 && v < 0:
		n := new(big.Int).Add(big.NewInt(v), twoTo128)
		return "0x" + strings.ToUpper(n.Text(16))
	}
	return fmt.Sprintf("0x%X", Normalize(v, size))
}

type printer struct {
	sb strings.Builder
}

func (p *printer) expr(e *Expr) {
	p.sb.WriteString(e.op.String())
	p.sb.WriteString(SizeSuffix(e.size))
	if e.op.HasFlags() {
		p.sb.WriteByte('{')
		p.sb.WriteString(e.flags.String())
		p.sb.WriteByte('}')
	}
	p.sb.WriteByte('(')
	for i, o := range e.operands {
		if i > 0 {
			p.sb.WriteByte(',')
		}
		p.operand(e, o)
	}
	p.sb.WriteByte(')')
}

func (p *printer) operand(parent *Expr, o Operand) {
	switch v := o.(type) {
	case *Expr:
		p.expr(v)
	case Reg:
		p.sb.WriteString(string(v))
	case Flag:
		p.sb.WriteString(string(v))
	case Int:
		if parent.op.IsConst() {
			p.sb.WriteString(FormatConst(int64(v), parent.size))
		} else {
			p.sb.WriteString(strconv.FormatInt(int64(v), 10))
		}
	}
}

func (p *printer) sequence(s Sequence) {
	for i, e := range s {
		if i > 0 {
			p.sb.WriteString(Separator)
		}
		p.expr(e)
	}
}

// CanonicalExpr returns the canonical text of a single operation.
func CanonicalExpr(e *Expr) string {
	var p printer
	p.expr(e)
	return p.sb.String()
}

// Canonical returns the canonical text of a sequence. The output depends
// only on the tree, so equal trees always print identically.
func Canonical(s Sequence) string {
	var p printer
	p.sequence(s)
	return p.sb.String()
}

// Printer writes canonical text to a writer, reusing its buffer between
// calls. A Printer is not safe for concurrent use.
type Printer struct {
	// Trim drops one trailing LLIL_UNDEF before printing.
	Trim bool

	p printer
}

// WriteSequence writes the canonical text of s to w.
func (pr *Printer) WriteSequence(w io.Writer, s Sequence) error {
	if pr.Trim {
		s = s.Trimmed()
	}
	pr.p.sb.Reset()
	pr.p.sequence(s)
	_, err := io.WriteString(w, pr.p.sb.String())
	return err
}

// TrimTerminator removes exactly one trailing Terminator from a canonical
// string. Anything else is returned unchanged.
func TrimTerminator(s string) string {
	return strings.TrimSuffix(s, Terminator)
}
