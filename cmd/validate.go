package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/loanbeacons/lendermatch-cli/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <catalog.json>",
	Short: "Validate a non-QM lender catalog file",
	Long:  "Runs the full schema validation over a catalog file: banned pricing fields, identity, versioning, per-program guideline completeness, and display prose limits.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read catalog %s", args[0])
		}

		valid, err := schema.ValidateCatalog(data)
		if err != nil {
			return err
		}

		fmt.Printf("%d valid lender record(s) in %s\n", len(valid), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
