package main

import (
	"os"

	"github.com/teslashibe/lightnav/cmd/lightnav/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := commands.NewRootCommand()
	commands.SetVersionInfo(root, version, commit, date)

	// Errors are printed by the printer package with color formatting
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
