package main

import (
	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [rules]",
	Short: "Export the handler table as a Mermaid diagram",
	Long: `Prints a Mermaid flowchart of the rule file. With --events the events are
folded first and the handlers they reached are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}

		events, _ := cmd.Flags().GetString("events")
		format, _ := cmd.Flags().GetString("format")
		return cli.PrintGraph(cfg, opts, events, format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("events", "e", "", "Event file to overlay ('-' reads stdin)")
	graphCmd.Flags().String("format", "", "Event format: json or yaml (default: by extension)")
}
