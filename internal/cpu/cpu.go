/*
Elliott 903 - central processor.

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

// Package cpu implements the 903's decode/execute loop: the sixteen
// function codes, B-modification, the two priority levels and their
// memory-mapped B and sequence control registers, and the simulated-time
// cost of each instruction.
package cpu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andrewjherbert/elliott903/internal/diag"
	"github.com/andrewjherbert/elliott903/internal/memory"
	"github.com/andrewjherbert/elliott903/internal/plotter"
	"github.com/andrewjherbert/elliott903/internal/punch"
	"github.com/andrewjherbert/elliott903/internal/reader"
	"github.com/andrewjherbert/elliott903/internal/teletype"
	"github.com/andrewjherbert/elliott903/internal/trace"
)

// Memory-mapped locations of the B register and sequence control
// register (SCR) for each priority level.
const (
	SCRLevel1 = 0
	BRegLevel1 = 1
	SCRLevel4 = 6
	BRegLevel4 = 7
)

const (
	addrMask  = 8191   // 13-bit offset within a module
	modMask   = 0xE000 // module select bits (13-15) of a 16-bit address
	fnShift   = 13
	fnMask    = 15
	bModFlag  = 1 << 17 // bit 17 of the instruction word: apply B-modification
	signBit18 = 1 << 17 // bit 17 of an 18-bit value: its sign
	modulus18 = 1 << 18
)

// I/O-15 device addresses, per the function-15 sub-dispatch. The
// plotter's motion/pen command rides in the low 6 bits of A, not the
// address, so it has a single fixed address rather than a range.
const (
	ioReadTape  = 2048
	ioReadTTY   = 2052
	ioPunchTape = 6144
	ioWriteTTY  = 6148
	ioLevelTerm = 7168
	ioPlotter   = 4864
)

// signExtend18 interprets v (an 18-bit unsigned pattern) as a signed
// two's-complement value.
func signExtend18(v uint32) int64 {
	if v&signBit18 != 0 {
		return int64(v) - modulus18
	}
	return int64(v)
}

// wrap18 truncates v to its low 18 bits.
func wrap18(v int64) uint32 {
	return uint32(v) & memory.WordMask
}

// Machine is one instance of the emulated processor plus its peripherals.
type Machine struct {
	Store *memory.Store

	A, Q uint32

	Level         int
	scrAddr       uint32
	bAddr         uint32

	ICount   int64
	FCount   [16]int64
	EmTimeUS uint64

	Reader  *reader.Reader
	Punch   *punch.Punch
	TTY     *teletype.Teletype
	Plotter *plotter.Plotter
	Tracer  *trace.Tracer
	Log     *slog.Logger

	table [16]func(*Machine, uint32) error
}

// New returns a Machine at priority level 1, ready to run from whatever
// the store's memory-mapped SCR currently holds.
func New(store *memory.Store, rdr *reader.Reader, pun *punch.Punch, tty *teletype.Teletype, plt *plotter.Plotter, tracer *trace.Tracer, log *slog.Logger) *Machine {
	m := &Machine{
		Store:   store,
		Level:   1,
		scrAddr: SCRLevel1,
		bAddr:   BRegLevel1,
		Reader:  rdr,
		Punch:   pun,
		TTY:     tty,
		Plotter: plt,
		Tracer:  tracer,
		Log:     log,
	}
	m.createTable()
	return m
}

func (m *Machine) scr() uint32 {
	v, _ := m.Store.Read(m.scrAddr)
	return v
}

func (m *Machine) setSCR(v uint32) {
	_ = m.Store.Write(m.scrAddr, v)
}

func (m *Machine) bReg() uint32 {
	v, _ := m.Store.Read(m.bAddr)
	return v
}

func (m *Machine) setBReg(v uint32) {
	_ = m.Store.Write(m.bAddr, v)
}

// SetStartSCR seeds the memory-mapped SCR with the address execution
// should begin at, as the operator's control panel keys would.
func (m *Machine) SetStartSCR(addr uint32) {
	m.setSCR(addr)
}

// createTable builds the dense function-code dispatch table.
func (m *Machine) createTable() {
	m.table = [16]func(*Machine, uint32) error{
		opLoadB, opAdd, opNegateAdd, opStoreQ,
		opLoadA, opStoreA, opCollate, opJumpZero,
		opJumpUncond, opJumpNeg, opIncrement, opStoreS,
		opMultiply, opDivide, opShift, opIO,
	}
}

// Run executes instructions until a Termination occurs, or ctx is
// cancelled. Cancellation is reported as a non-clean fatal Termination,
// matching the run's SIGINT handling: no defined stop occurred.
func (m *Machine) Run(ctx context.Context) *diag.Termination {
	for {
		select {
		case <-ctx.Done():
			m.TTY.FlushLine()
			return diag.NewTermination(diag.ExitFatal, false, m.scr(), "execution cancelled")
		default:
		}
		if term := m.Step(); term != nil {
			return term
		}
	}
}

// Step executes exactly one instruction and returns a non-nil
// Termination if the run should stop.
func (m *Machine) Step() *diag.Termination {
	lastSCR := m.scr()
	if lastSCR >= memory.Size {
		return diag.NewTermination(diag.ExitFatal, false, lastSCR,
			fmt.Sprintf("SCR has overflowed the store (SCR = %d)", lastSCR))
	}
	m.setSCR(lastSCR + 1)

	word, err := m.Store.Read(lastSCR)
	if err != nil {
		return diag.NewTermination(diag.ExitFatal, false, lastSCR, err.Error())
	}
	f := (word >> fnShift) & fnMask
	a := (word & addrMask) | (lastSCR & modMask)
	m.FCount[f]++
	m.ICount++

	var addrRaw uint32
	if word&bModFlag != 0 {
		addrRaw = (a + m.bReg()) & 0xFFFF
		m.EmTimeUS += 6
	} else {
		addrRaw = a & 0xFFFF
	}

	if term := m.dispatch(f, addrRaw); term != nil {
		return term
	}

	if monAddr, ok := m.Tracer.MonitorAddr(); ok {
		v, _ := m.Store.Read(monAddr)
		if m.Tracer.CheckMonitor(v) {
			m.TTY.FlushLine()
			m.Log.Info("monitored location changed", "addr", monAddr, "value", v)
		}
	}

	m.Tracer.EvaluateTriggers(lastSCR, m.ICount)
	if m.Tracer.ShouldPrint() {
		m.TTY.FlushLine()
		m.logInstruction(word, f, a, lastSCR)
	}

	if m.Tracer.Abandoned() {
		m.TTY.FlushLine()
		if m.Tracer.Diagnostics() {
			m.Log.Info("instruction limit reached", "count", m.ICount)
		}
		return diag.NewTermination(diag.ExitInstructionLimit, true, lastSCR, "instruction limit reached")
	}

	if m.scr() == lastSCR {
		m.TTY.FlushLine()
		if m.Tracer.Diagnostics() {
			m.Log.Info("dynamic stop", "at", moduleAddr(lastSCR))
		}
		return diag.NewTermination(diag.ExitDynamicStop, true, lastSCR, "dynamic stop")
	}

	return nil
}

// dispatch runs function f with effective address addrRaw (16 bits,
// before the store-index clamp each opcode applies for itself).
// Divide-by-zero is the only panic an opcode can raise; it is converted
// here into a fatal Termination rather than crashing the process.
func (m *Machine) dispatch(f, addrRaw uint32) (term *diag.Termination) {
	defer func() {
		if r := recover(); r != nil {
			term = diag.NewTermination(diag.ExitFatal, false, m.scr(), fmt.Sprintf("arithmetic fault: %v", r))
		}
	}()
	if err := m.table[f](m, addrRaw); err != nil {
		if t, ok := err.(*diag.Termination); ok {
			return t
		}
		return diag.NewTermination(diag.ExitFatal, false, m.scr(), err.Error())
	}
	return nil
}

func moduleAddr(addr uint32) string {
	return fmt.Sprintf("%d^%04d", (addr>>fnShift)&7, addr&addrMask)
}

func (m *Machine) logInstruction(word, f, a, lastSCR uint32) {
	an := signExtend18(m.A)
	qn := signExtend18(m.Q)
	bn := signExtend18(m.bReg())
	m.Log.Info("instruction",
		"count", m.ICount,
		"scr", moduleAddr(lastSCR),
		"bmod", word&bModFlag != 0,
		"f", f, "a", a,
		"A", an, "Q", qn, "B", bn,
	)
}
