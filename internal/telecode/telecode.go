/*
Elliott 903 - telecode conversion.

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

// Package telecode converts between 900-series telecode (7-bit ASCII with
// an even-parity eighth bit, plus a reserved halt code) and plain text, for
// preparing reader tapes and reading punch/teletype output off-line.
package telecode

// HaltMarker is the literal text the reader tape encodes as the halt
// character, byte 0x14 (20 decimal).
const HaltMarker = "<! HALT !>"

// HaltByte is the 900 telecode byte produced for HaltMarker.
const HaltByte = 20

// AddParity sets bit 7 of code so the byte carries even parity, matching
// the 900's paper tape convention.
func AddParity(code byte) byte {
	var ones int
	for c := code; c != 0; c >>= 1 {
		if c&1 != 0 {
			ones++
		}
	}
	if ones%2 != 0 {
		return code + 128
	}
	return code
}

// StripParity clears bit 7.
func StripParity(b byte) byte {
	return b & 0x7F
}

// Printable reports whether b (after parity has been stripped) is a
// character the teletype will print: newline or the printable ASCII range
// used by the 900's teleprinter, space through 'z'.
func Printable(b byte) bool {
	return b == '\n' || (b >= 0x20 && b <= 0x7A)
}

// Encoder converts a text stream into telecode, recognizing HaltMarker
// wherever it appears and substituting HaltByte for it.
type Encoder struct {
	pending []byte
}

// NewEncoder returns a ready-to-use Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Write feeds text through the encoder, appending emitted telecode bytes
// to dst and returning the extended slice. Non-ASCII input bytes (>127)
// are discarded.
func (e *Encoder) Write(dst []byte, text []byte) []byte {
	marker := []byte(HaltMarker)
	for _, ch := range text {
		if ch > 127 {
			continue
		}
		if ch == marker[len(e.pending)] {
			e.pending = append(e.pending, ch)
			if len(e.pending) == len(marker) {
				dst = append(dst, HaltByte)
				e.pending = e.pending[:0]
			}
			continue
		}
		for _, held := range e.pending {
			dst = append(dst, AddParity(held))
		}
		e.pending = e.pending[:0]
		if ch == marker[0] {
			// The character that broke a partial match may start a new one.
			e.pending = append(e.pending, ch)
			continue
		}
		dst = append(dst, AddParity(ch))
	}
	return dst
}

// Flush emits any partially matched HaltMarker prefix still held, for use
// at end of input.
func (e *Encoder) Flush(dst []byte) []byte {
	for _, held := range e.pending {
		dst = append(dst, AddParity(held))
	}
	e.pending = e.pending[:0]
	return dst
}

// Decode strips parity from a telecode byte stream and filters it down to
// the characters the teletype would actually print, appending a trailing
// newline if any character survived the filter and the last one was not
// already a newline.
func Decode(telecode []byte) []byte {
	out := make([]byte, 0, len(telecode))
	lastWasNewline := false
	for _, b := range telecode {
		ch := StripParity(b)
		if !Printable(ch) {
			continue
		}
		out = append(out, ch)
		lastWasNewline = ch == '\n'
	}
	if len(out) > 0 && !lastWasNewline {
		out = append(out, '\n')
	}
	return out
}
