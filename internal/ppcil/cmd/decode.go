package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ppcil/internal/disasm"
	"ppcil/internal/golden"
	"ppcil/internal/ppc"
)

var decodeCmd = &cobra.Command{
	Use:   "decode hex...",
	Short: "Show the decoded fields of instruction words",
	Example: `
ppcil decode 7c642a15 4e800020
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stop, err := startProfile(cmd)
		if err != nil {
			return err
		}
		defer stop()

		out := cmd.OutOrStdout()
		var errs []error
		for _, a := range args {
			b, err := golden.ParseHex(a)
			if err != nil {
				return fmt.Errorf("bad hex %q: %w", a, err)
			}

			ref := "?"
			if in, err := disasm.Decode(0, b); err == nil {
				ref = in.Text
			}

			inst, err := ppc.DecodeBytes(b)
			if err != nil {
				fmt.Fprintf(out, "%s  %-24s %v\n", a, ref, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "%08x  %-24s %s\n", inst.Word, ref, inst.Desc)
			for _, op := range inst.Args {
				fmt.Fprintf(out, "\t%-4s %d\n", op.Field, op.Value)
			}
		}
		return errors.Join(errs...)
	},
}
