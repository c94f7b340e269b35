package main

import (
	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table [rules]",
	Short: "Print the flattened handler keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}

		app, err := cli.NewApp(cfg, opts)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		return cli.PrintTable(app, format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().StringP("format", "f", cli.TableAuto, "Output format: auto, text, markdown or json")
}
