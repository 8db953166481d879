/*
reverse - reverse a paper tape image end to end.

Copyright 2026, Andrew Herbert
*/

package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"
)

// tapeLimit mirrors a physical reel of paper tape: 1000 feet, 12 inches
// to the foot, 10 characters to the inch.
const tapeLimit = 1000 * 12 * 10

func main() {
	inPath := getopt.StringLong("input", 'i', ".punch", "Input tape file")
	outPath := getopt.StringLong("output", 'o', ".reverse", "Output tape file")
	getopt.Parse()

	data, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reverse:", err)
		os.Exit(1)
	}
	if len(data) > tapeLimit {
		fmt.Fprintln(os.Stderr, "reverse: input file longer than a reel of paper tape")
		os.Exit(1)
	}

	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}

	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "reverse:", err)
		os.Exit(1)
	}
}
