/*
Elliott 903 - emulator entry point.

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

package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/andrewjherbert/elliott903/internal/config"
	"github.com/andrewjherbert/elliott903/internal/cpu"
	"github.com/andrewjherbert/elliott903/internal/diag"
	"github.com/andrewjherbert/elliott903/internal/initorders"
	"github.com/andrewjherbert/elliott903/internal/memory"
	"github.com/andrewjherbert/elliott903/internal/plotter"
	"github.com/andrewjherbert/elliott903/internal/punch"
	"github.com/andrewjherbert/elliott903/internal/reader"
	"github.com/andrewjherbert/elliott903/internal/teletype"
	"github.com/andrewjherbert/elliott903/internal/trace"
)

func main() {
	opt, err := config.Parse(os.Args[1:])
	if err != nil {
		if config.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(diag.ExitFatal)
	}

	log, closeLog, err := diag.New(logPath(opt), opt.Verbosity&trace.VerboseDiag != 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(diag.ExitFatal)
	}
	defer closeLog()

	store := memory.New()
	if err := store.Load(opt.StoreFile); err != nil {
		log.Error(err.Error())
		os.Exit(diag.ExitFatal)
	}
	if err := initorders.Load(store); err != nil {
		log.Error(err.Error())
		os.Exit(diag.ExitFatal)
	}

	rdr := reader.New(opt.ReaderFile)
	pun := punch.New(opt.PunchFile)
	tty := teletype.New(opt.TeletypeFile, os.Stdout, os.Stdout)
	plt := plotter.New(opt.PlotWidth, opt.PlotHeight, opt.PenSize)

	tracer := trace.New(trace.Params{
		Verbosity:       opt.Verbosity,
		TraceAtAddress:  opt.TraceAtAddress,
		TraceAfterCount: opt.TraceAfterCount,
		LimitedTrace:    opt.LimitedTraceAddr,
		Monitor:         opt.Monitor,
		AbandonAfter:    opt.Abandon,
	})

	machine := cpu.New(store, rdr, pun, tty, plt, tracer, log)
	machine.SetStartSCR(opt.StartSCR)

	if tracer.Diagnostics() {
		log.Info("starting execution", "scr", opt.StartSCR)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := machine.Run(ctx)
	tty.FlushLine()

	tty.Close()
	pun.Close()

	if term.Clean {
		if err := store.Save(opt.StoreFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(diag.ExitFatal)
		}
		if err := rdr.SaveResidual(opt.ResidualFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(diag.ExitFatal)
		}
		if err := savePlot(plt, opt.PlotterFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(diag.ExitFatal)
		}
		if err := os.WriteFile(opt.StopFile, []byte(strconv.FormatUint(uint64(term.SCR), 10)), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(diag.ExitFatal)
		}
	}
	rdr.Close()

	if tracer.Diagnostics() {
		log.Info("run complete",
			"instructions", machine.ICount,
			"simulated_us", machine.EmTimeUS,
			"reason", term.Reason,
		)
	}

	os.Exit(term.Code)
}

func logPath(opt *config.Options) string {
	if opt.DiagToFile {
		return opt.LogFile
	}
	return ""
}

func savePlot(plt *plotter.Plotter, path string) error {
	pixels, width, height := plt.Raster()
	if pixels == nil {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			img.Set(x, y, color.RGBA{R: pixels[off], G: pixels[off+1], B: pixels[off+2], A: 0xFF})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing plot: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
