// go-repeater runs a simulated network of quantum repeater endpoints that
// generate and hand off entangled pairs.
package main

import (
	"fmt"
	"os"

	"github.com/entanglenet/go-repeater/cmd"
	"github.com/entanglenet/go-repeater/node"
)

var (
	version string
	commit  string
	branch  string
)

func main() { // run the app
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := node.GetCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
