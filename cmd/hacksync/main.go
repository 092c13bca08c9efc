// Command hacksync hydrates, edits and persists a hackathon dataset.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hacksync/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
