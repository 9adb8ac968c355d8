// Package app assembles this node's command-line application.
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/rustybit-go/rustybit/cli/node"
)

// Version is the node's release version, set at build time via
// -ldflags or left as the development default.
var Version = "0.0.0_dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "rustybit\nVersion: %s\nGoVersion: %s\n", Version, runtime.Version())
}

// New builds the *cli.App with every subcommand wired in.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "rustybit"
	ctl.Version = Version
	ctl.Usage = "A Bitcoin peer-to-peer network node"
	ctl.ErrWriter = os.Stdout

	// Suppress urfave/cli's own os.Exit: main.go decides the process exit
	// code (255 on any error, per this node's CLI contract) uniformly,
	// whether the failure was a parse error or a command action error.
	ctl.ExitErrHandler = func(*cli.Context, error) {}
	ctl.Commands = append(ctl.Commands, node.NewCommands()...)
	return ctl
}
