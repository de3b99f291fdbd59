package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"ppcil/internal/lift"
	"ppcil/internal/llil"
)

const liR3 = "LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x64))"

var (
	passing  = Case{Name: "li", Input: []byte{0x38, 0x60, 0x00, 0x64}, Expected: liR3}
	failing  = Case{Name: "li wrong", Input: []byte{0x38, 0x60, 0x00, 0x64}, Expected: "LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x65))"}
	zeroWord = Case{Name: "zero", Input: []byte{0, 0, 0, 0}, Expected: "LLIL_NOP{none}()"}
	short    = Case{Name: "short", Input: []byte{0x38, 0x60}, Expected: "x"}
)

// recorder keeps everything it is given.
type recorder struct {
	results []Result
	summary *Summary
}

func (r *recorder) Report(res Result) error {
	r.results = append(r.results, res)
	return nil
}

func (r *recorder) Finish(s Summary) error {
	r.summary = &s
	return nil
}

func TestCheck(t *testing.T) {
	r := &Runner{Lifter: lift.New()}

	res := r.Check(0, passing)
	if res.Status != StatusPass || res.Actual != liR3 || res.Tree != "" {
		t.Errorf("passing case = %+v", res)
	}

	res = r.Check(1, failing)
	if res.Status != StatusMismatch {
		t.Fatalf("status = %v, want mismatch", res.Status)
	}
	if res.Tree != llil.Tree(liR3) {
		t.Errorf("tree = %q", res.Tree)
	}

	res = r.Check(2, zeroWord)
	if res.Status != StatusUnrecognized || res.Err == nil {
		t.Errorf("zero word = %+v, want unrecognized", res)
	}

	res = r.Check(3, short)
	if res.Status != StatusError || res.Err == nil {
		t.Errorf("short input = %+v, want error", res)
	}
}

func TestKeepTerminator(t *testing.T) {
	r := &Runner{KeepTerminator: true}
	c := passing
	c.Expected = liR3 + llil.Terminator
	if res := r.Check(0, c); !res.Passed() {
		t.Errorf("untrimmed compare failed: %+v", res)
	}
}

func TestRunOneMismatch(t *testing.T) {
	rec := &recorder{}
	r := &Runner{Reporter: rec}
	sum, err := r.Run(context.Background(), []Case{passing, failing})
	if err != nil {
		t.Fatal(err)
	}

	if sum.OK() {
		t.Error("summary is OK with a mismatch")
	}
	if sum.Passed != 1 || sum.Mismatched != 1 || sum.Failed() != 1 {
		t.Errorf("summary = %+v", sum)
	}
	var mismatches []Result
	for _, res := range rec.results {
		if res.Status == StatusMismatch {
			mismatches = append(mismatches, res)
		}
	}
	if len(mismatches) != 1 || mismatches[0].Index != 1 || mismatches[0].Tree == "" {
		t.Errorf("mismatch reports = %+v", mismatches)
	}
	if rec.summary == nil || rec.summary.OK() {
		t.Error("reporter did not get a failing summary")
	}
}

func TestRunStopOnFirst(t *testing.T) {
	r := &Runner{StopOnFirst: true}
	sum, err := r.Run(context.Background(), []Case{passing, failing, passing})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Run != 2 || sum.Cases != 3 || sum.OK() {
		t.Errorf("summary = %+v, want two cases run", sum)
	}
}

func TestRunParallelMatchesSerial(t *testing.T) {
	var cases []Case
	for i := 0; i < 40; i++ {
		switch i % 4 {
		case 0:
			cases = append(cases, passing)
		case 1:
			cases = append(cases, failing)
		case 2:
			cases = append(cases, zeroWord)
		default:
			cases = append(cases, short)
		}
	}

	serial, err := (&Runner{}).Run(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := (&Runner{Parallel: 8}).Run(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}

	opts := cmp.Options{
		cmpopts.IgnoreFields(Summary{}, "Duration"),
		cmp.Comparer(func(a, b error) bool { return (a == nil) == (b == nil) }),
	}
	if diff := cmp.Diff(serial, parallel, opts); diff != "" {
		t.Errorf("parallel summary differs (-serial +parallel):\n%s", diff)
	}
	if parallel.Mismatched != 10 || parallel.Unrecognized != 10 || parallel.Errored != 10 {
		t.Errorf("summary = %+v", parallel)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, p := range []int{0, 4} {
		_, err := (&Runner{Parallel: p}).Run(ctx, []Case{passing})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("parallel=%d: err = %v, want context.Canceled", p, err)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	sum, err := (&Runner{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.OK() {
		t.Error("empty corpus is not OK")
	}
}

type failingReporter struct{}

func (failingReporter) Report(Result) error  { return errors.New("disk full") }
func (failingReporter) Finish(Summary) error { return nil }

func TestRunReporterError(t *testing.T) {
	_, err := (&Runner{Reporter: failingReporter{}}).Run(context.Background(), []Case{passing})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v", err)
	}
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Reporter: NewTextReporter(&buf, false)}
	if _, err := r.Run(context.Background(), []Case{passing, failing}); err != nil {
		t.Fatal(err)
	}

	want := "MISMATCH AT TEST 1!\n" +
		"\t   input: 38600064\n" +
		"\texpected: LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x65))\n" +
		"\t  actual: " + liR3 + "\n" +
		"\t    tree:\n" +
		llil.Tree(liR3) + "\n" +
		"FAILED: 1/2 passed, 1 mismatched, 0 unrecognized, 0 errors (0 not run)\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text report (-want +got):\n%s", diff)
	}
}

func TestTextReporterSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Reporter: NewTextReporter(&buf, false)}
	if _, err := r.Run(context.Background(), []Case{passing}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "success!\n" {
		t.Errorf("report = %q, want success!", got)
	}
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Reporter: NewJSONReporter(&buf)}
	if _, err := r.Run(context.Background(), []Case{passing, zeroWord}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	var res jsonResult
	if err := json.Unmarshal([]byte(lines[1]), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusUnrecognized || res.Input != "00000000" || res.Error == "" {
		t.Errorf("result line = %+v", res)
	}
	var sum jsonSummary
	if err := json.Unmarshal([]byte(lines[2]), &sum); err != nil {
		t.Fatal(err)
	}
	if !sum.Summary || sum.OK || sum.Unrecognized != 1 {
		t.Errorf("summary line = %+v", sum)
	}
}

func TestMarkdownSummary(t *testing.T) {
	sum, err := (&Runner{}).Run(context.Background(), []Case{passing, failing})
	if err != nil {
		t.Fatal(err)
	}
	md := MarkdownSummary(sum)
	for _, want := range []string{"# Lifting report", "## Test 1: mismatch", "`38600064`", "LLIL_CONST.d"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}

	var buf bytes.Buffer
	if err := (&MarkdownReporter{W: &buf, Width: 80}).Finish(sum); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Lifting") {
		t.Errorf("rendered summary:\n%s", buf.String())
	}
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	r := &Runner{Reporter: Tee(a, nil, b)}
	if _, err := r.Run(context.Background(), []Case{passing, failing}); err != nil {
		t.Fatal(err)
	}
	if len(a.results) != 2 || len(b.results) != 2 || a.summary == nil || b.summary == nil {
		t.Errorf("tee fan-out: a=%d b=%d", len(a.results), len(b.results))
	}
}
