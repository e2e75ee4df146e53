// Command fintrack-calc runs the interest calculators and prints owner
// reports as terminal tables.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&simpleCmd{}, "calculators")
	commander.Register(&compoundCmd{}, "calculators")
	commander.Register(&reportCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
