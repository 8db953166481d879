/*
Elliott 903 - core store.

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

// Package memory implements the 903's 16384-word core store: an 18-bit
// word array with bounds-checked access and a decimal persistence codec.
package memory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const (
	Size     = 16384    // words in store
	WordMask = 0x3FFFF  // 18 bits
	AddrMask = Size - 1 // 14 bits
)

// ErrOutOfRange is returned by Read/Write when addr >= Size.
var ErrOutOfRange = errors.New("memory: address out of range")

// Store is the 903 core store: a fixed array of 16384 18-bit words.
type Store struct {
	words [Size]uint32
}

// New returns a zeroed store.
func New() *Store {
	return &Store{}
}

// Read fetches store[addr], masked to 18 bits. An out of range address
// is a fatal condition for the caller.
func (s *Store) Read(addr uint32) (uint32, error) {
	if addr >= Size {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, addr)
	}
	return s.words[addr] & WordMask, nil
}

// Write stores value (masked to 18 bits, arithmetic wraps modulo 2^18) at
// addr. An out of range address is a fatal condition for the caller.
func (s *Store) Write(addr uint32, value uint32) error {
	if addr >= Size {
		return fmt.Errorf("%w: %d", ErrOutOfRange, addr)
	}
	s.words[addr] = value & WordMask
	return nil
}

// WriteRaw stores value verbatim, without masking to 18 bits. Used only by
// Load, which must accept out of range values from a store image file
// as-is (spec: "not validated").
func (s *Store) WriteRaw(addr uint32, value uint32) error {
	if addr >= Size {
		return fmt.Errorf("%w: %d", ErrOutOfRange, addr)
	}
	s.words[addr] = value
	return nil
}

// Load overlays the store from path: whitespace-separated decimal
// integers. A missing file is not an error (store left as-is, normally
// zeroed). More than Size values, or a malformed token, is fatal.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("memory: opening store image: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	var addr uint32
	for scanner.Scan() {
		if addr >= Size {
			return fmt.Errorf("memory: store image %s has more than %d words", path, Size)
		}
		v, err := strconv.ParseInt(scanner.Text(), 10, 64)
		if err != nil {
			return fmt.Errorf("memory: store image %s: malformed word %q: %w", path, scanner.Text(), err)
		}
		if err := s.WriteRaw(addr, uint32(v)); err != nil {
			return err
		}
		addr++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("memory: reading store image %s: %w", path, err)
	}
	return nil
}

// Save writes the entire store as whitespace-separated decimal integers,
// eight words per line.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("memory: creating store image: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := s.writeTo(w); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Store) writeTo(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	for i, word := range s.words {
		if _, err := fmt.Fprintf(bw, "%d", word); err != nil {
			return err
		}
		if (i+1)%8 == 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		} else {
			if _, err := bw.WriteString(" "); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
