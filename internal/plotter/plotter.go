/*
Elliott 903 - incremental graph plotter.

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

// Package plotter models the 903's incremental graph plotter: a pen that
// steps one unit at a time in up to two of the four compass directions
// per command, painting a filled square of the paper's raster when the
// pen is down.
package plotter

// Motion command bits, as placed in the low 6 bits of the accumulator
// when the I/O-15 plotter instruction is issued.
const (
	BitEast = 1 << iota
	BitWest
	BitNorth
	BitSouth
	BitPenUp
	BitPenDown
)

// originX and originY place the pen's starting point near the left edge
// and bottom of the paper, matching the physical plotter's start-up rest
// position.
const (
	originX = 1500
	originY = 200
)

// Plotter holds the pen's position and the paper it draws on. The raster
// is allocated lazily, on the first plotter command of any kind, so a run
// that never plots never pays for it and never fails for want of memory
// before it needs to.
type Plotter struct {
	width, height int
	penSize       int // nib half-width, in raster steps

	x, y    int
	penDown bool

	raster []byte // width*height*3 bytes, RGB, allocated on first use
}

// New returns a Plotter for a sheet of the given width and height (in
// plotter steps) and a pen of the given nib half-width. The raster is
// not allocated until the first command.
func New(width, height, penSize int) *Plotter {
	return &Plotter{width: width, height: height, penSize: penSize}
}

func (p *Plotter) ensureRaster() {
	if p.raster != nil {
		return
	}
	if p.width <= 0 || p.height <= 0 {
		return
	}
	p.raster = make([]byte, p.width*p.height*3)
	for i := range p.raster {
		p.raster[i] = 0xFF // white paper
	}
	p.x, p.y = originX, p.height-originY
}

// Command executes one plotter instruction: bits is the low 6 bits of
// the accumulator (East/West/North/South/PenUp/PenDown, any combination
// of one east-or-west bit with one north-or-south bit for a diagonal
// step).
func (p *Plotter) Command(bits uint32) {
	p.ensureRaster()
	if p.raster == nil {
		return // allocation never succeeded; plotter commands are no-ops
	}

	if bits&BitPenUp != 0 {
		p.penDown = false
	}
	if bits&BitPenDown != 0 {
		p.penDown = true
	}

	switch {
	case bits&BitEast != 0 && p.x < p.width-1:
		p.x++
	case bits&BitWest != 0 && p.x > 0:
		p.x--
	}
	switch {
	case bits&BitNorth != 0:
		p.y--
	case bits&BitSouth != 0:
		p.y++
	}

	if p.penDown {
		p.paint()
	}
}

// paint darkens a (2*penSize+1) square of the raster centered on the
// current pen position, clipped to the paper.
func (p *Plotter) paint() {
	for dy := -p.penSize; dy <= p.penSize; dy++ {
		py := p.y + dy
		if py < 0 || py >= p.height {
			continue
		}
		for dx := -p.penSize; dx <= p.penSize; dx++ {
			px := p.x + dx
			if px < 0 || px >= p.width {
				continue
			}
			off := (py*p.width + px) * 3
			p.raster[off] = 0
			p.raster[off+1] = 0
			p.raster[off+2] = 0
		}
	}
}

// Raster returns the paper's RGB pixels (row-major, 3 bytes per pixel)
// together with its dimensions, for an external image encoder. It
// returns a nil slice if the plotter was never used.
func (p *Plotter) Raster() (pixels []byte, width, height int) {
	return p.raster, p.width, p.height
}
