// Command scigp fits a Gaussian process to scattered samples in a CSV file
// and predicts mean and variance at the query points of a second CSV file.
//
//	$ scigp fit-predict -input-csv train.csv -predict-csv grid.csv -output-csv out.csv
package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
)

func root() *commander.Command {
	return &commander.Command{
		UsageLine: "scigp <command> [options]",
		Short:     "Gaussian process regression for scattered data",
		Subcommands: []*commander.Command{
			fitPredictCmd(),
		},
	}
}

func main() {
	if err := root().Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
