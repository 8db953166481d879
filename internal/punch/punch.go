/*
Elliott 903 - paper tape punch.

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

// Package punch models the 903's paper tape punch: an append-only output
// device with a fixed-length reel.
package punch

import (
	"errors"
	"fmt"
	"os"
)

// ReelLimit is the maximum number of characters a reel of output tape can
// hold before it must be changed.
const ReelLimit = 120000

// ErrReelFull is returned once ReelLimit characters have been punched.
var ErrReelFull = errors.New("punch: reel exceeded")

// Punch is the paper tape punch.
type Punch struct {
	path   string
	file   *os.File
	opened bool
	count  int
}

// New returns a Punch that will lazily create path on the first
// character punched.
func New(path string) *Punch {
	return &Punch{path: path}
}

func (p *Punch) ensureOpen() error {
	if p.opened {
		return nil
	}
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("punch: creating %s: %w", p.path, err)
	}
	p.file = f
	p.opened = true
	return nil
}

// PunchByte appends b to the tape. It returns ErrReelFull once the reel
// limit is reached; the caller treats that as a defined, clean
// termination.
func (p *Punch) PunchByte(b byte) error {
	if p.count >= ReelLimit {
		return ErrReelFull
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if _, err := p.file.Write([]byte{b}); err != nil {
		return fmt.Errorf("punch: writing %s: %w", p.path, err)
	}
	p.count++
	return nil
}

// Close releases the backing file, if it was ever opened.
func (p *Punch) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}
