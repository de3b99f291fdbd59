// Package harness checks lifted output against expected canonical strings.
//
// A Runner lifts each Case, compares the canonical text of the result with
// the expected text, and hands every Result to a Reporter. Mismatches carry
// the tree rendering of the actual output so nested operands can be read
// one per line.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"ppcil/internal/lift"
	"ppcil/internal/llil"
	"ppcil/internal/ppc"
)

// Case is one input word and the canonical text it must lift to.
type Case struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Addr     uint32 `json:"addr,omitempty" yaml:"addr,omitempty"`
	Input    []byte `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// Status classifies a checked case.
type Status uint8

const (
	StatusPass Status = iota
	StatusMismatch
	StatusUnrecognized
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusMismatch:
		return "mismatch"
	case StatusUnrecognized:
		return "unrecognized"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", s)
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for v := StatusPass; v <= StatusError; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Result is the outcome of one case.
type Result struct {
	Index  int
	Case   Case
	Status Status
	// Actual is the canonical text produced, with one terminator trimmed
	// unless the runner keeps it.
	Actual string
	// Tree is the tree rendering of Actual, set on mismatch.
	Tree string
	Err  error
}

// Passed reports whether the case matched.
func (r Result) Passed() bool { return r.Status == StatusPass }

// Summary counts results in input order.
type Summary struct {
	Cases        int
	Run          int
	Passed       int
	Mismatched   int
	Unrecognized int
	Errored      int
	Duration     time.Duration
	Results      []Result
}

// OK reports whether every case ran and passed. An empty corpus is OK.
func (s Summary) OK() bool { return s.Run == s.Cases && s.Passed == s.Cases }

// Failed is the number of cases that ran and did not pass.
func (s Summary) Failed() int { return s.Run - s.Passed }

func (s *Summary) add(r Result) {
	s.Run++
	switch r.Status {
	case StatusPass:
		s.Passed++
	case StatusMismatch:
		s.Mismatched++
	case StatusUnrecognized:
		s.Unrecognized++
	default:
		s.Errored++
	}
	s.Results = append(s.Results, r)
}

// Lifter is the lifting entry point the harness drives.
type Lifter interface {
	LiftAt(addr uint32, b []byte) (llil.Sequence, error)
}

// Reporter receives results as they complete and the summary at the end.
// Report calls are serialized.
type Reporter interface {
	Report(Result) error
	Finish(Summary) error
}

// Runner checks a corpus of cases.
type Runner struct {
	// Lifter defaults to lift.New().
	Lifter Lifter
	// Reporter may be nil.
	Reporter Reporter
	// Parallel is the number of concurrent lifts. Values below 2 run the
	// cases in order.
	Parallel int
	// StopOnFirst stops at the first case that does not pass.
	StopOnFirst bool
	// KeepTerminator compares the full canonical text instead of trimming
	// one trailing terminator.
	KeepTerminator bool
	// Logger receives debug events. Nil disables logging.
	Logger *log.Logger
}

// Check lifts and compares a single case.
func (r *Runner) Check(index int, c Case) Result {
	res := Result{Index: index, Case: c}

	seq, err := r.lifter().LiftAt(c.Addr, c.Input)
	switch {
	case errors.Is(err, ppc.ErrUnrecognizedEncoding):
		res.Status = StatusUnrecognized
		res.Err = err
		return res
	case err != nil:
		res.Status = StatusError
		res.Err = err
		return res
	}

	actual := llil.Canonical(seq)
	if !r.KeepTerminator {
		actual = llil.TrimTerminator(actual)
	}
	res.Actual = actual
	if actual == c.Expected {
		res.Status = StatusPass
		return res
	}
	res.Status = StatusMismatch
	res.Tree = llil.Tree(actual)
	return res
}

// Run checks cases and reports each result. The returned error is a
// reporter failure or the context error; mismatches are not errors.
func (r *Runner) Run(ctx context.Context, cases []Case) (Summary, error) {
	start := time.Now()
	sum := Summary{Cases: len(cases)}
	r.lifter()

	var err error
	if r.Parallel < 2 {
		err = r.runSerial(ctx, cases, &sum)
	} else {
		err = r.runParallel(ctx, cases, &sum)
	}
	sum.Duration = time.Since(start)

	if err != nil {
		return sum, err
	}
	if r.Reporter != nil {
		if err := r.Reporter.Finish(sum); err != nil {
			return sum, fmt.Errorf("report summary: %w", err)
		}
	}
	return sum, nil
}

func (r *Runner) runSerial(ctx context.Context, cases []Case, sum *Summary) error {
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.Check(i, c)
		sum.add(res)
		if err := r.report(res); err != nil {
			return err
		}
		if r.StopOnFirst && !res.Passed() {
			r.debug("stopping at first failure", "index", i)
			break
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, cases []Case, sum *Summary) error {
	results := make([]Result, len(cases))
	done := make([]bool, len(cases))
	var (
		mu      sync.Mutex
		stopped atomic.Bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Parallel)
	for i, c := range cases {
		if gctx.Err() != nil || stopped.Load() {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil || stopped.Load() {
				return nil
			}
			res := r.Check(i, c)

			mu.Lock()
			defer mu.Unlock()
			results[i], done[i] = res, true
			if r.StopOnFirst && !res.Passed() {
				stopped.Store(true)
			}
			return r.report(res)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, ok := range done {
		if ok {
			sum.add(results[i])
		}
	}
	return nil
}

func (r *Runner) report(res Result) error {
	if !res.Passed() {
		r.debug("case failed", "index", res.Index, "status", res.Status, "err", res.Err)
	}
	if r.Reporter == nil {
		return nil
	}
	if err := r.Reporter.Report(res); err != nil {
		return fmt.Errorf("report case %d: %w", res.Index, err)
	}
	return nil
}

func (r *Runner) lifter() Lifter {
	if r.Lifter == nil {
		r.Lifter = lift.New()
	}
	return r.Lifter
}

func (r *Runner) debug(msg string, keyvals ...interface{}) {
	if r.Logger != nil {
		r.Logger.Debug(msg, keyvals...)
	}
}
