/*
Elliott 903 - command line configuration.

Copyright 2024, Richard Cornwell
Copyright 2026, Andrew Herbert

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package config parses the emulator's command line surface: peripheral
// file paths, the starting address, trace/monitor/abandon thresholds,
// verbosity and the plotter's dimensions.
package config

import (
	"fmt"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/andrewjherbert/elliott903/internal/initorders"
)

// Options holds the fully parsed command line.
type Options struct {
	ReaderFile    string
	PunchFile     string
	TeletypeFile  string
	StoreFile     string
	ResidualFile  string
	StopFile      string
	LogFile       string
	PlotterFile   string

	StartSCR uint32

	TraceAtAddress   int64 // -1 disabled
	TraceAfterCount  int64 // -1 disabled
	LimitedTraceAddr int64 // -1 disabled
	Monitor          int64 // -1 disabled
	Abandon          int64 // -1 disabled

	Verbosity uint

	PlotWidth  int
	PlotHeight int
	PenSize    int

	DiagToFile bool
}

// defaults mirrors the original emulator's default file names, with a
// 4000 x 3000-step sheet for the plotter.
func defaults() *Options {
	return &Options{
		ReaderFile:       ".reader",
		PunchFile:        ".punch",
		TeletypeFile:     ".ttyin",
		StoreFile:        ".store",
		ResidualFile:     ".reader",
		StopFile:         ".stop",
		LogFile:          "",
		PlotterFile:      ".plot.png",
		StartSCR:         initorders.StartSCR,
		TraceAtAddress:   -1,
		TraceAfterCount:  -1,
		LimitedTraceAddr: -1,
		Monitor:          -1,
		Abandon:          -1,
		Verbosity:        0,
		PlotWidth:        4000,
		PlotHeight:       3000,
		PenSize:          1,
	}
}

// ParseAddress parses a store address, either a plain decimal number or
// the module^offset form module*8192+offset.
func ParseAddress(s string) (uint32, error) {
	if idx := strings.IndexByte(s, '^'); idx >= 0 {
		module, err := strconv.ParseUint(s[:idx], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("config: invalid module in address %q: %w", s, err)
		}
		offset, err := strconv.ParseUint(s[idx+1:], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("config: invalid offset in address %q: %w", s, err)
		}
		return uint32(module*8192 + offset), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

// Parse decodes args (typically os.Args[1:]) into Options.
func Parse(args []string) (*Options, error) {
	opt := defaults()

	set := getopt.New()
	readerFile := set.StringLong("reader", 0, opt.ReaderFile, "Paper tape reader input file")
	punchFile := set.StringLong("punch", 0, opt.PunchFile, "Paper tape punch output file")
	ttyFile := set.StringLong("tty", 0, opt.TeletypeFile, "Teletype input file")
	storeFile := set.StringLong("store", 0, opt.StoreFile, "Store image file")
	residualFile := set.StringLong("residual", 0, opt.ResidualFile, "Residual reader input file")
	stopFile := set.StringLong("stopfile", 0, opt.StopFile, "Dynamic stop address file")
	logFile := set.StringLong("log", 'l', opt.LogFile, "Diagnostics log file (default stderr)")
	plotFile := set.StringLong("plot", 0, opt.PlotterFile, "Plotter PNG output file")

	jump := set.StringLong("jump", 'j', "", "Starting SCR address (module^offset or decimal)")

	traceAt := set.StringLong("straceat", 's', "", "Enable tracing when SCR first reaches this address")
	traceAfter := set.Int64Long("traceafter", 't', -1, "Enable tracing after this many instructions")
	limitedTrace := set.StringLong("rtrace", 'r', "", "Enable full tracing and a 1000-instruction abandon window at this instruction count")
	monitor := set.StringLong("monitor", 'm', "", "Monitor this store word for changes")
	abandon := set.Int64Long("abandon", 'a', -1, "Abandon execution after this many instructions")
	verbosity := set.UintLong("verbose", 'v', 0, "Verbosity bit-mask (bit0 diag, bit1 jumps, bit2 all, bit3 io)")

	plotWidth := set.IntLong("width", 0, opt.PlotWidth, "Plotter paper width in steps")
	plotHeight := set.IntLong("height", 0, opt.PlotHeight, "Plotter paper height in steps")
	penSize := set.IntLong("pen", 0, opt.PenSize, "Plotter pen nib half-width in steps (<=12)")

	diagToFile := set.BoolLong("diagfile", 'd', "Also write diagnostics to the log file; they are still mirrored to stderr")
	help := set.BoolLong("help", 'h', "Show usage")

	if err := set.Getopt(args, nil); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if *help {
		set.PrintUsage(nil)
		return nil, flagHelpRequested
	}

	opt.ReaderFile = *readerFile
	opt.PunchFile = *punchFile
	opt.TeletypeFile = *ttyFile
	opt.StoreFile = *storeFile
	opt.ResidualFile = *residualFile
	opt.StopFile = *stopFile
	opt.LogFile = *logFile
	opt.PlotterFile = *plotFile
	opt.TraceAfterCount = *traceAfter
	opt.Abandon = *abandon
	opt.Verbosity = *verbosity
	opt.PlotWidth = *plotWidth
	opt.PlotHeight = *plotHeight
	opt.PenSize = *penSize
	opt.DiagToFile = *diagToFile

	if *jump != "" {
		v, err := ParseAddress(*jump)
		if err != nil {
			return nil, err
		}
		if v > 8191 {
			return nil, fmt.Errorf("config: jump address %d exceeds 8191", v)
		}
		opt.StartSCR = v
	}
	if *traceAt != "" {
		v, err := ParseAddress(*traceAt)
		if err != nil {
			return nil, err
		}
		opt.TraceAtAddress = int64(v)
	}
	if *limitedTrace != "" {
		v, err := ParseAddress(*limitedTrace)
		if err != nil {
			return nil, err
		}
		opt.LimitedTraceAddr = int64(v)
	}
	if *monitor != "" {
		v, err := ParseAddress(*monitor)
		if err != nil {
			return nil, err
		}
		opt.Monitor = int64(v)
	}
	if opt.Verbosity > 15 {
		return nil, fmt.Errorf("config: verbosity %d exceeds 15", opt.Verbosity)
	}
	if opt.PenSize > 12 || opt.PenSize < 0 {
		return nil, fmt.Errorf("config: pen size %d out of range [0,12]", opt.PenSize)
	}

	return opt, nil
}

// flagHelpRequested is returned by Parse when -h/--help was given; the
// caller should exit 0 without further diagnostics.
var flagHelpRequested = helpRequestedErr{}

type helpRequestedErr struct{}

func (helpRequestedErr) Error() string { return "help requested" }

// IsHelpRequested reports whether err is the sentinel returned when
// -h/--help was passed to Parse.
func IsHelpRequested(err error) bool {
	_, ok := err.(helpRequestedErr)
	return ok
}
