// Command reduce is a reference source/sink harness around the
// otherwise source/sink-agnostic reduction engine: it reads
// newline-delimited JSON events from stdin or a file, drives a
// pkg/reduce.Reducer configured from a YAML document, and writes
// consolidated JSON events to stdout.
//
// Usage:
//
//	reduce run -c config.yaml < events.ndjson
package main

import (
	"fmt"
	"os"

	"github.com/logreduce/logreduce/cmd/reduce/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
