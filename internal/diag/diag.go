/*
Elliott 903 - diagnostics and termination reporting.

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

// Package diag wraps log/slog with the emulator's own handler, and defines
// the run's exit code space.
package diag

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Exit codes, per the run's termination table. A clean dynamic stop is the
// only zero-value outcome; everything else reports a distinct reason.
const (
	ExitDynamicStop       = 0
	ExitFatal             = 1
	ExitReaderExhausted   = 2
	ExitTeletypeExhausted = 4
	ExitInstructionLimit  = 8
	ExitPunchExceeded     = 16
)

// Handler is a slog.Handler that writes a short plain-text line to an
// optional log file and always mirrors anything above Debug to stderr.
type Handler struct {
	out   io.Writer
	h     slog.Handler
	mu    *sync.Mutex
	debug bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithGroup(name), mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	formattedTime := r.Time.Format("2006/01/02 15:04:05")

	strs := []string{formattedTime, level, r.Message}
	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, a.Value.String())
		return true
	})
	line := strings.Join(strs, " ") + "\n"
	b := []byte(line)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, err = os.Stderr.Write(b)
	}
	return err
}

// NewHandler builds a Handler writing to out (may be nil), mirroring
// diagnostic-level (verbosity bit0) messages to stderr when debug is true.
func NewHandler(out io.Writer, level slog.Level, debug bool) *Handler {
	return &Handler{
		out:   out,
		h:     slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

// New opens path (if non-empty) and returns a ready-to-use *slog.Logger
// together with a closer for the underlying file, if any.
func New(path string, debug bool) (*slog.Logger, func() error, error) {
	var out io.Writer
	closer := func() error { return nil }

	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closer = f.Close
	}

	h := NewHandler(out, slog.LevelDebug, debug)
	return slog.New(h), closer, nil
}

// Termination describes how a run ended.
type Termination struct {
	Code   int
	Reason string
	Clean  bool // false: environment/IO failure rather than a defined stop
	SCR    uint32
}

func (t *Termination) Error() string { return t.Reason }

// NewTermination builds a Termination with the given exit code and reason.
func NewTermination(code int, clean bool, scr uint32, reason string) *Termination {
	return &Termination{Code: code, Reason: reason, Clean: clean, SCR: scr}
}
