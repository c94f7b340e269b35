package main

import (
	"fmt"
	"os"

	"github.com/aretw0/foldtable/internal/cli"
	"github.com/aretw0/foldtable/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foldtable",
	Short: "foldtable folds event streams through declarative handler tables",
	Long: `foldtable builds a two-level dispatch table from a rule file and reduces
streams of typed events into state. Event types select handlers by key;
group handlers are addressed as <Group>_<Handler>.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("rules", "r", "rules.yaml", "Rule file defining the handler table")
	rootCmd.PersistentFlags().String("glue", "", "Separator between group and handler keys (overrides the rule file)")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail on key collisions instead of keeping the last handler")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// commonOptions reads the persistent flags and the environment.
// A positional argument takes the place of --rules when the flag was not set.
func commonOptions(cmd *cobra.Command, args []string) (*config.Config, cli.Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cli.Options{}, err
	}

	flags := cmd.Flags()
	rulesPath, _ := flags.GetString("rules")
	if !flags.Changed("rules") && len(args) > 0 {
		rulesPath = args[0]
	}
	glue, _ := flags.GetString("glue")
	strict, _ := flags.GetBool("strict")
	debug, _ := flags.GetBool("debug")

	return cfg, cli.Options{
		RulesPath: rulesPath,
		Glue:      glue,
		Strict:    strict,
		Debug:     debug,
	}, nil
}
