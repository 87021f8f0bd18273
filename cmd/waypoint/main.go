// Package main is the entry point for the waypoint CLI.
package main

import (
	"fmt"
	"os"

	"github.com/imyousuf/waypoint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
