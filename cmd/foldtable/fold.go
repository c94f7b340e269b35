package main

import (
	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

var foldCmd = &cobra.Command{
	Use:   "fold [rules]",
	Short: "Fold an event file and print the final state",
	Long: `Reads events (newline delimited JSON, a JSON array or a YAML sequence) and
reduces them through the rule file, starting from its initial state.

With --stream the result is persisted through the configured store
(FOLDTABLE_STORE) and the stream's snapshot is printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}

		app, err := cli.NewApp(cfg, opts)
		if err != nil {
			return err
		}

		events, _ := cmd.Flags().GetString("events")
		format, _ := cmd.Flags().GetString("format")
		trace, _ := cmd.Flags().GetBool("trace")
		streamID, _ := cmd.Flags().GetString("stream")

		ctx := cli.WithStopSignals(cmd.Context())
		defer ctx.Stop()

		return cli.Fold(ctx, app, cli.FoldOptions{
			EventsPath: events,
			Format:     format,
			Trace:      trace,
			StreamID:   streamID,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(foldCmd)

	foldCmd.Flags().StringP("events", "e", "-", "Event file ('-' reads stdin)")
	foldCmd.Flags().String("format", "", "Event format: json or yaml (default: by extension)")
	foldCmd.Flags().Bool("trace", false, "Print the diff caused by each event")
	foldCmd.Flags().String("stream", "", "Persist the result under this stream ID")
}
