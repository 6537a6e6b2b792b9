package main

import (
	"github.com/cottand/tally/cmd"
	"github.com/spf13/cobra"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tally [subcommand]",
	Short:        "tally: incremental evaluation of cost expressions",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.BenchCmd)
}
