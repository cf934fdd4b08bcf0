package main

import (
	"os"

	"github.com/crudecomputer/hldr/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
