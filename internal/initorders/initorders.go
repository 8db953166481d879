/*
Elliott 903 - Initial Orders bootstrap.

Copyright 2026, Andrew Herbert
*/

// Package initorders holds the fixed 12-word Initial Orders bootstrap and
// loads it into the top of store at the start of every run.
package initorders

import "github.com/andrewjherbert/elliott903/internal/memory"

// Base is the store address of the first Initial Orders word. The block
// occupies the twelve words [Base, Base+12), i.e. 8180-8191.
const Base = 8180

// StartSCR is the default sequence control register value used to enter
// the Initial Orders on a fresh run, unless overridden from the command
// line.
const StartSCR = 8181

// instruction packs a (B-flag, function, address) triple into an 18-bit
// instruction word.
func instruction(bFlag bool, f, a uint32) uint32 {
	word := (f & 0xF) << 13
	word |= a & 0x1FFF
	if bFlag {
		word |= 1 << 17
	}
	return word
}

// words is the Initial Orders table: word 8180 is the count register seed
// (-3 in 18-bit two's complement); the remaining eleven words are the
// reader bootstrap loop described in spec §4.6.
var words = [12]uint32{
	(-3) & memory.WordMask, // 8180: character count, starts at -3
	instruction(false, 0, 8180),  // 8181: B := store[8180]
	instruction(false, 4, 8189),  // 8182: A := store[8189]
	instruction(false, 15, 2048), // 8183: A := (A<<7 | reader byte)
	instruction(false, 9, 8186),  // 8184: jump if negative to 8186
	instruction(false, 8, 8183),  // 8185: jump to 8183
	instruction(false, 15, 2048), // 8186: A := (A<<7 | reader byte)
	instruction(true, 5, 8180),   // 8187: store[8180+B] := A
	instruction(false, 10, 1),    // 8188: store[1] += 1
	instruction(false, 4, 1),     // 8189: A := store[1]
	instruction(false, 9, 8182),  // 8190: jump if negative to 8182
	instruction(false, 8, 8177),  // 8191: jump to 8177
}

// Load writes the Initial Orders unconditionally into store[8180:8192].
// It bypasses the runtime Store-A guard that protects this range during
// normal execution, since the load itself is what establishes the range's
// contents at the start of each run.
func Load(store *memory.Store) error {
	for i, w := range words {
		if err := store.Write(Base+uint32(i), w); err != nil {
			return err
		}
	}
	return nil
}

// InRange reports whether addr falls inside the immutable Initial Orders
// block.
func InRange(addr uint32) bool {
	return addr >= Base && addr < Base+uint32(len(words))
}
