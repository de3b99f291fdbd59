package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"ppcil/internal/golden"
	"ppcil/internal/harness"
	"ppcil/internal/lift"
	"ppcil/internal/logging"
)

// errTestsFailed makes the process exit non-zero after a failing run.
var errTestsFailed = errors.New("lifting tests failed")

var testCmd = &cobra.Command{
	Use:   "test [corpus...]",
	Short: "Check lifted output against a golden corpus",
	Long: `Lift every case of the corpus and compare its canonical LLIL with the
expected text. With no arguments the built-in corpus is used. The run stops
at the first failing case unless --all is given, and prints "success!" when
every case passes.`,
	Example: `
# Run the built-in corpus
ppcil test

# Run two corpora in parallel, reporting every failure
ppcil test --all -p 8 base.yaml branches.json

# Machine-readable results
ppcil test --all --json
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		stop, err := startProfile(cmd)
		if err != nil {
			return err
		}
		defer stop()

		files := args
		if len(files) == 0 {
			files = cfg.Corpus
		}
		cases, err := loadCorpora(files)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")
		summary, _ := cmd.Flags().GetBool("summary")
		verbose, _ := cmd.Flags().GetBool("verbose")

		timeout := time.Duration(cfg.Timeout)
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetDuration("timeout")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		out := cmd.OutOrStdout()
		var rep harness.Reporter
		if asJSON {
			rep = harness.NewJSONReporter(out)
		} else {
			tr := harness.NewTextReporter(out, color())
			tr.Verbose = verbose
			rep = tr
		}
		if summary {
			rep = harness.Tee(rep, &harness.MarkdownReporter{W: out})
		}

		r := &harness.Runner{
			Lifter:         lift.New(),
			Reporter:       rep,
			Parallel:       flagInt(cmd, "parallel", cfg.Parallel),
			StopOnFirst:    !all,
			KeepTerminator: flagBool(cmd, "keep-undef", cfg.KeepTerminator),
		}
		if logging.IsDebug() {
			r.Logger = logging.NewLogger().Logger
		}

		sum, err := r.Run(ctx, cases)
		slog.Debug("test run finished",
			"cases", sum.Cases, "run", sum.Run, "passed", sum.Passed, "duration", sum.Duration)
		if err != nil {
			return fmt.Errorf("test run: %w", err)
		}
		if !sum.OK() {
			return errTestsFailed
		}
		return nil
	},
}

func init() {
	testCmd.Flags().IntP("parallel", "p", 0, "Concurrent lifts (0 runs cases in order)")
	testCmd.Flags().BoolP("all", "a", false, "Keep going after a failing case")
	testCmd.Flags().BoolP("json", "j", false, "Output one JSON object per case")
	testCmd.Flags().Bool("summary", false, "Print a markdown summary at the end")
	testCmd.Flags().BoolP("verbose", "v", false, "List passing cases too")
	testCmd.Flags().Duration("timeout", 0, "Wall-clock budget for the run")
	testCmd.Flags().Bool("keep-undef", false, "Compare without trimming the trailing LLIL_UNDEF")
}

func loadCorpora(files []string) ([]harness.Case, error) {
	if len(files) == 0 {
		return golden.Builtin()
	}
	var cases []harness.Case
	for _, f := range files {
		c, err := golden.LoadFile(f)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c...)
	}
	return cases, nil
}
