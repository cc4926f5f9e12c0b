// Command hindsight reconstructs the causal order of distributed traces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hindsight/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
