// Command flavord serves the flavor-of-the-day calendar over gRPC and runs
// one-shot queries against the same core from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "flavord",
		Short:         "Flavor of the day calendar service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to the YAML config file (default $FLAVORD_CONFIG or ./flavord.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: console or json")

	root.AddCommand(
		newServeCommand(),
		newCalendarCommand(),
		newFlavorsCommand(),
		newFlavorCommand(),
		newLocationCommand(),
		newSearchCommand(),
		newStatusCommand(),
	)
	return root
}
