/*
Elliott 903 - teletype.

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

// Package teletype models the 903's console teletype: a low-7-bit input
// stream echoed to the terminal, and an output stream filtered to the
// characters the teleprinter can actually print.
package teletype

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// OutputLimit bounds the output stream the same way a reel of tape
// bounds the punch.
const OutputLimit = 120000

// ErrExhausted is returned once the input stream runs out.
var ErrExhausted = errors.New("teletype: input exhausted")

// ErrOutputLimit is returned once OutputLimit characters have been
// written to the output stream.
var ErrOutputLimit = errors.New("teletype: output limit exceeded")

// Teletype couples an input file (the operator's typed input) to an
// output writer (normally stdout).
type Teletype struct {
	inPath   string
	in       *os.File
	inOpened bool

	out        io.Writer
	echo       io.Writer
	count      int
	lastWasNL  bool
	everWrote  bool
}

// New returns a Teletype reading inPath lazily and writing to out, with
// input echoed to echo (normally the same stream as out).
func New(inPath string, out, echo io.Writer) *Teletype {
	return &Teletype{inPath: inPath, out: out, echo: echo, lastWasNL: true}
}

func (t *Teletype) ensureOpen() error {
	if t.inOpened {
		return nil
	}
	f, err := os.Open(t.inPath)
	if err != nil {
		return fmt.Errorf("teletype: opening %s: %w", t.inPath, err)
	}
	t.in = f
	t.inOpened = true
	return nil
}

// ReadByte returns the next input character, masked to 7 bits, echoing
// it to the console. ErrExhausted signals a clean end of input.
func (t *Teletype) ReadByte() (byte, error) {
	if err := t.ensureOpen(); err != nil {
		return 0, err
	}
	var b [1]byte
	n, err := t.in.Read(b[:])
	if n == 1 {
		ch := b[0] & 0x7F
		if t.echo != nil {
			_, _ = t.echo.Write([]byte{ch})
		}
		return ch, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, ErrExhausted
	}
	return 0, fmt.Errorf("teletype: reading %s: %w", t.inPath, err)
}

// WriteByte filters b down to the characters the teleprinter prints
// (newline and printable ASCII) and discards anything else silently,
// as the real machine's print head would. Reaching OutputLimit is
// reported as ErrOutputLimit.
func (t *Teletype) WriteByte(b byte) error {
	ch := b & 0x7F
	if ch != '\n' && (ch < 0x20 || ch > 0x7A) {
		return nil
	}
	if t.count >= OutputLimit {
		return ErrOutputLimit
	}
	if _, err := t.out.Write([]byte{ch}); err != nil {
		return fmt.Errorf("teletype: writing output: %w", err)
	}
	t.count++
	t.everWrote = true
	t.lastWasNL = ch == '\n'
	return nil
}

// FlushLine writes a newline first if the last character written was
// not already one, so a diagnostic message printed afterwards starts on
// its own line. It is a no-op if nothing has been written yet.
func (t *Teletype) FlushLine() {
	if t.everWrote && !t.lastWasNL {
		_, _ = t.out.Write([]byte{'\n'})
		t.lastWasNL = true
	}
}

// Close releases the backing input file, if it was ever opened.
func (t *Teletype) Close() error {
	if t.in == nil {
		return nil
	}
	return t.in.Close()
}
