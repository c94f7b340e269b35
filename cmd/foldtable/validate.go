package main

import (
	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [rules]",
	Short: "Check the rule file for collisions and misconfigurations",
	Long: `Builds the handler table in strict mode with diagnostics enabled.
Key collisions and nested groups fail validation; an 'undefined' key is reported as a warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}
		return cli.Validate(cfg, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
