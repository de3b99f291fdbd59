package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"ppcil/internal/ppcil/log"
	"ppcil/internal/ui/colorize"
)

// cfg is the configuration in effect for the running command.
var cfg Config

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "JSON config file (default $PPCIL_CONFIG)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().String("cpuprofile", "", "Write CPU profile to file")

	rootCmd.AddCommand(liftCmd, testCmd, decodeCmd)
}

var rootCmd = &cobra.Command{
	Use:   "ppcil",
	Short: "PowerPC instruction lifter",
	Long: `ppcil decodes 32-bit big-endian PowerPC instructions, lifts them to
low-level IL and checks the canonical output against golden corpora.`,
	Example: `
# Lift one instruction
ppcil lift 38600064

# Lift a function from an executable
ppcil lift --elf a.out --symbol main

# Run the built-in corpus
ppcil test
  `,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded

		if flagBool(cmd, "debug", cfg.Debug) {
			cfg.Debug = true
		}
		if flagBool(cmd, "no-color", cfg.NoColor) {
			cfg.NoColor = true
			os.Setenv("PPCIL_NO_COLOR", "1")
		}
		cfg.LogFile = flagString(cmd, "log-file", cfg.LogFile)
		if err := log.Setup(cfg.LogFile, cfg.Debug); err != nil {
			return err
		}

		slog.Debug("configured", "config", path, "debug", cfg.Debug, "noColor", cfg.NoColor)
		return nil
	},
}

// startProfile starts CPU profiling when --cpuprofile is set. Commands
// defer the returned stop so the profile is flushed on failing runs too.
func startProfile(cmd *cobra.Command) (stop func(), err error) {
	p, _ := cmd.Flags().GetString("cpuprofile")
	if p == "" {
		return func() {}, nil
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			slog.Warn("closing CPU profile", "file", p, "err", err)
		}
	}, nil
}

// flagBool returns the flag value when it was set on the command line and
// def otherwise.
func flagBool(cmd *cobra.Command, name string, def bool) bool {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func flagString(cmd *cobra.Command, name, def string) string {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagInt(cmd *cobra.Command, name string, def int) int {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

// color reports whether output to stdout should be styled.
func color() bool {
	return !cfg.NoColor && colorize.Enabled() && term.IsTerminal(os.Stdout.Fd())
}

func Execute() {
	// fang renders help and errors as styled markdown; piped output gets
	// plain cobra.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
