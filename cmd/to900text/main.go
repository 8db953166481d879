/*
to900text - convert a UTF-8/ASCII text file into 900-series telecode.

Copyright 2026, Andrew Herbert
*/

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/andrewjherbert/elliott903/internal/telecode"
)

const defaultOutFile = ".reader"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: to900text inputfile [outputfile]")
		os.Exit(1)
	}
	inPath := os.Args[1]
	outPath := defaultOutFile
	if len(os.Args) >= 3 {
		outPath = os.Args[2]
	}

	in, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "to900text:", err)
		os.Exit(1)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "to900text:", err)
		os.Exit(1)
	}
	defer out.Close()

	text, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "to900text:", err)
		os.Exit(1)
	}

	enc := telecode.NewEncoder()
	var telecodeBytes []byte
	telecodeBytes = enc.Write(telecodeBytes, text)
	telecodeBytes = enc.Flush(telecodeBytes)

	if _, err := out.Write(telecodeBytes); err != nil {
		fmt.Fprintln(os.Stderr, "to900text:", err)
		os.Exit(1)
	}
}
