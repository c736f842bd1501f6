// Package main is the entry point of polarionlint, a checker and exporter for
// the Polarion metadata embedded in Python test docstrings.
package main

import "polarionlint/cmd"

func main() {
	cmd.Execute()
}
