package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rosterforge/legend-engine/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate [ruleset-path]",
	Short: "Validate a ruleset document",
	Long: `Loads a ruleset and checks it for structural problems: era bucket
gaps and overlaps, non-positive weights, quota totals that exceed the global
budget, and attribute source chains with out-of-order tiers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Snapshot.RulesPath
		if len(args) == 1 {
			path = args[0]
		}

		rs, err := rules.Load(path)
		if err != nil {
			return err
		}

		vr := rs.Validate()
		for _, w := range vr.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, e := range vr.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		if !vr.OK() {
			return eris.Errorf("validate: %s has %d error(s)", path, len(vr.Errors))
		}

		hash, err := rs.Hash()
		if err != nil {
			return err
		}
		fmt.Printf("%s is valid (hash %s)\n", path, hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
