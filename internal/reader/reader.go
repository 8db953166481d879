/*
Elliott 903 - paper tape reader.

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

// Package reader models the 903's paper tape reader: a byte-at-a-time
// input device whose backing file is opened lazily, on the first read.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrExhausted is returned by ReadByte once the tape has run out. It is a
// defined, clean termination condition, not an environment failure.
var ErrExhausted = errors.New("reader: tape exhausted")

// Reader is the paper tape reader. It does not open its backing file
// until the first ReadByte call, so a run that never reads the tape never
// fails for a missing reader file.
type Reader struct {
	path   string
	file   *os.File
	opened bool
	count  int64 // bytes read so far
}

// New returns a Reader that will lazily open path.
func New(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) ensureOpen() error {
	if r.opened {
		return nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("reader: opening %s: %w", r.path, err)
	}
	r.file = f
	r.opened = true
	return nil
}

// ReadByte returns the next tape character. At end of tape it returns
// ErrExhausted; any other error is an environment failure.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ensureOpen(); err != nil {
		return 0, err
	}
	var b [1]byte
	n, err := r.file.Read(b[:])
	if n == 1 {
		r.count++
		return b[0], nil
	}
	if errors.Is(err, io.EOF) {
		return 0, ErrExhausted
	}
	return 0, fmt.Errorf("reader: reading %s: %w", r.path, err)
}

// Close releases the backing file, if it was ever opened.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// SaveResidual copies whatever remains unread on the tape to path, so a
// later run can resume from the point this run left off. It is a no-op
// if the reader file was never opened.
func (r *Reader) SaveResidual(path string) error {
	if !r.opened {
		return nil
	}
	rest, err := io.ReadAll(r.file)
	if err != nil {
		return fmt.Errorf("reader: reading residual tape: %w", err)
	}
	if err := os.WriteFile(path, rest, 0o644); err != nil {
		return fmt.Errorf("reader: writing residual tape %s: %w", path, err)
	}
	return nil
}
