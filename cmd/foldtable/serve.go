package main

import (
	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [rules]",
	Short: "Start the HTTP server",
	Long: `Serves the stream API over HTTP. Streams are stored in the backend chosen by
FOLDTABLE_STORE (memory, file or redis).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetString("port")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		ctx := cli.WithStopSignals(cmd.Context())
		defer ctx.Stop()

		return cli.Serve(ctx, cfg, opts, cli.ServeOptions{
			Port:    port,
			Metrics: withMetrics,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
