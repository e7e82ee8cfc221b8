// Command issctl is the operator CLI for the ISS tracker. It downloads
// the OEM ephemeris, inspects cached documents, and resolves spacecraft
// positions without a running daemon.
package main

import (
	"fmt"
	"os"

	"github.com/sheikhmt/taha-iss-tracker/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "issctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
