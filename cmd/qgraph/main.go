// Command qgraph builds, checks and stores typed query graphs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qgraph/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.Reported(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
