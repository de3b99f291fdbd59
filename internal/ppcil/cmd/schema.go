package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"ppcil/internal/golden"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the ppcil configuration file, or for corpus files with --corpus",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, _ := cmd.Flags().GetBool("corpus")

		reflector := new(jsonschema.Reflector)
		var s *jsonschema.Schema
		if corpus {
			s = reflector.Reflect(&[]golden.Entry{})
		} else {
			s = reflector.Reflect(&Config{})
		}
		bts, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	schemaCmd.Flags().Bool("corpus", false, "Schema of a corpus file instead of the config")
	rootCmd.AddCommand(schemaCmd)
}
