// Package main provides the mmftsim CLI: a thin wrapper around the
// simulation core, kept separate from it so the core stays usable as a
// library. Exactly one positional argument (an input JSON path);
// output JSON is written to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tuningFile string
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mmftsim [input.json]",
	Short: "Microfluidic network simulator",
	Long: `mmftsim couples a 1D nodal solver with CFD sub-domains to simulate
flow, mixing, droplets, and membrane transport in microfluidic networks.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tuningFile, "tuning", "", "path to a TOML solver-tuning file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print a dimensioned pressure/flow-rate summary to stderr")
	viper.BindPFlag("tuning", rootCmd.PersistentFlags().Lookup("tuning"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
