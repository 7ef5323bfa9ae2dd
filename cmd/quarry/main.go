// Package main implements the quarry command line interface: bulk question
// and answer generation for configured regions, a read-only admin API, and
// schema migrations for the optional run-record database.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
