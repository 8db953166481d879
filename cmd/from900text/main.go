/*
from900text - convert 900-series telecode into plain text.

Copyright 2026, Andrew Herbert
*/

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/andrewjherbert/elliott903/internal/telecode"
	getopt "github.com/pborman/getopt/v2"
)

func main() {
	inPath := getopt.StringLong("input", 'i', ".punch", "Telecode input file")
	outPath := getopt.StringLong("ascii", 'a', ".ascii", "ASCII output file")
	getopt.Parse()

	in, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "from900text:", err)
		os.Exit(1)
	}
	defer in.Close()

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "from900text:", err)
		os.Exit(1)
	}
	defer out.Close()

	raw, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "from900text:", err)
		os.Exit(1)
	}

	if _, err := out.Write(telecode.Decode(raw)); err != nil {
		fmt.Fprintln(os.Stderr, "from900text:", err)
		os.Exit(1)
	}
}
