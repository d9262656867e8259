// Package main is the armsim command itself.
package main

import (
	"fmt"
	"os"

	armsimcli "github.com/armsim/armsim/cli"
)

func main() {
	app := armsimcli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
