package main

import (
	"fmt"
	"os"

	"github.com/UNO-CSCI4830/project4-logbook/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
