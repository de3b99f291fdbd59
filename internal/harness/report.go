package harness

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"ppcil/internal/ppcil/styles"
)

// TextReporter writes the console report: a block per failing case and a
// closing "success!" line when everything passed.
type TextReporter struct {
	W io.Writer
	// Verbose also lists passing cases.
	Verbose bool
	// Styles colors the output. Nil writes plain text.
	Styles *styles.Styles
}

// NewTextReporter returns a TextReporter writing to w. Color selects the
// styled palette.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	t := &TextReporter{W: w}
	if color {
		st := styles.Default()
		t.Styles = &st
	}
	return t
}

// paint renders text line by line so styling never pads or re-indents it.
func (t *TextReporter) paint(pick func(*styles.Styles) lipgloss.Style, text string) string {
	if t.Styles == nil {
		return text
	}
	st := pick(t.Styles)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = st.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

func fail(s *styles.Styles) lipgloss.Style  { return s.Fail }
func pass(s *styles.Styles) lipgloss.Style  { return s.Pass }
func warn(s *styles.Styles) lipgloss.Style  { return s.Warn }
func label(s *styles.Styles) lipgloss.Style { return s.Label }
func value(s *styles.Styles) lipgloss.Style { return s.Value }
func tree(s *styles.Styles) lipgloss.Style  { return s.Tree }

func (t *TextReporter) field(name, v string) string {
	return "\t" + t.paint(label, name) + " " + v + "\n"
}

func (t *TextReporter) Report(r Result) error {
	input := hex.EncodeToString(r.Case.Input)

	var sb strings.Builder
	switch r.Status {
	case StatusPass:
		if !t.Verbose {
			return nil
		}
		fmt.Fprintf(&sb, "%s %d %s\n", t.paint(pass, "ok"), r.Index, caseLabel(r.Case, input))
	case StatusMismatch:
		sb.WriteString(t.paint(fail, fmt.Sprintf("MISMATCH AT TEST %d!", r.Index)) + "\n")
		sb.WriteString(t.field("   input:", input))
		sb.WriteString(t.field("expected:", t.paint(value, r.Case.Expected)))
		sb.WriteString(t.field("  actual:", t.paint(value, r.Actual)))
		sb.WriteString("\t" + t.paint(label, "    tree:") + "\n")
		sb.WriteString(t.paint(tree, r.Tree) + "\n")
	case StatusUnrecognized:
		sb.WriteString(t.paint(warn, fmt.Sprintf("UNRECOGNIZED AT TEST %d!", r.Index)) + "\n")
		sb.WriteString(t.field("   input:", input))
		sb.WriteString(t.field("   error:", r.Err.Error()))
	default:
		sb.WriteString(t.paint(fail, fmt.Sprintf("ERROR AT TEST %d!", r.Index)) + "\n")
		sb.WriteString(t.field("   input:", input))
		sb.WriteString(t.field("   error:", r.Err.Error()))
	}
	_, err := io.WriteString(t.W, sb.String())
	return err
}

func (t *TextReporter) Finish(s Summary) error {
	if s.OK() {
		_, err := fmt.Fprintln(t.W, t.paint(pass, "success!"))
		return err
	}
	_, err := fmt.Fprintf(t.W, "%s: %d/%d passed, %d mismatched, %d unrecognized, %d errors (%d not run)\n",
		t.paint(fail, "FAILED"),
		s.Passed, s.Cases, s.Mismatched, s.Unrecognized, s.Errored, s.Cases-s.Run)
	return err
}

func caseLabel(c Case, input string) string {
	if c.Name != "" {
		return c.Name + " " + input
	}
	return input
}

// JSONReporter writes one JSON object per result followed by a summary
// object, newline delimited.
type JSONReporter struct {
	enc *json.Encoder
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

type jsonResult struct {
	Index    int    `json:"index"`
	Name     string `json:"name,omitempty"`
	Addr     uint32 `json:"addr,omitempty"`
	Input    string `json:"input"`
	Status   Status `json:"status"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

type jsonSummary struct {
	Summary      bool   `json:"summary"`
	OK           bool   `json:"ok"`
	Cases        int    `json:"cases"`
	Run          int    `json:"run"`
	Passed       int    `json:"passed"`
	Mismatched   int    `json:"mismatched"`
	Unrecognized int    `json:"unrecognized"`
	Errored      int    `json:"errored"`
	Duration     string `json:"duration"`
}

func (j *JSONReporter) Report(r Result) error {
	out := jsonResult{
		Index:    r.Index,
		Name:     r.Case.Name,
		Addr:     r.Case.Addr,
		Input:    hex.EncodeToString(r.Case.Input),
		Status:   r.Status,
		Expected: r.Case.Expected,
		Actual:   r.Actual,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return j.enc.Encode(out)
}

func (j *JSONReporter) Finish(s Summary) error {
	return j.enc.Encode(jsonSummary{
		Summary:      true,
		OK:           s.OK(),
		Cases:        s.Cases,
		Run:          s.Run,
		Passed:       s.Passed,
		Mismatched:   s.Mismatched,
		Unrecognized: s.Unrecognized,
		Errored:      s.Errored,
		Duration:     s.Duration.String(),
	})
}

// MarkdownSummary builds a markdown report of a run: a counts table and a
// section per failing case with its tree.
func MarkdownSummary(s Summary) string {
	var sb strings.Builder

	sb.WriteString("# Lifting report\n\n")
	fmt.Fprintf(&sb, "| cases | passed | mismatched | unrecognized | errors |\n")
	fmt.Fprintf(&sb, "|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d |\n\n", s.Cases, s.Passed, s.Mismatched, s.Unrecognized, s.Errored)

	if s.OK() {
		sb.WriteString("**success!**\n")
		return sb.String()
	}

	for _, r := range s.Results {
		if r.Passed() {
			continue
		}
		fmt.Fprintf(&sb, "## Test %d: %s\n\n", r.Index, r.Status)
		fmt.Fprintf(&sb, "- input: `%s`\n", hex.EncodeToString(r.Case.Input))
		if r.Case.Name != "" {
			fmt.Fprintf(&sb, "- name: %s\n", r.Case.Name)
		}
		fmt.Fprintf(&sb, "- expected: `%s`\n", r.Case.Expected)
		if r.Err != nil {
			fmt.Fprintf(&sb, "- error: %s\n\n", r.Err)
			continue
		}
		fmt.Fprintf(&sb, "- actual: `%s`\n\n", r.Actual)
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", strings.TrimPrefix(r.Tree, "\n"))
	}
	return sb.String()
}

// MarkdownReporter renders MarkdownSummary through glamour when the run
// finishes. Individual results are not written.
type MarkdownReporter struct {
	W     io.Writer
	Width int
}

func (m *MarkdownReporter) Report(Result) error { return nil }

func (m *MarkdownReporter) Finish(s Summary) error {
	width := m.Width
	if width <= 0 {
		width = 100
	}
	r, err := styles.MarkdownRenderer(width)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(MarkdownSummary(s))
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err = io.WriteString(m.W, out)
	return err
}

type tee []Reporter

// Tee sends every result and the summary to each reporter in turn,
// stopping at the first error. Nil reporters are skipped.
func Tee(rs ...Reporter) Reporter {
	var t tee
	for _, r := range rs {
		if r != nil {
			t = append(t, r)
		}
	}
	return t
}

func (t tee) Report(r Result) error {
	for _, rep := range t {
		if err := rep.Report(r); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Finish(s Summary) error {
	for _, rep := range t {
		if err := rep.Finish(s); err != nil {
			return err
		}
	}
	return nil
}
