package cpu

/*
 * Elliott 903 - central processor tests
 *
 * Copyright 2026, Andrew Herbert
 */

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrewjherbert/elliott903/internal/diag"
	"github.com/andrewjherbert/elliott903/internal/memory"
	"github.com/andrewjherbert/elliott903/internal/plotter"
	"github.com/andrewjherbert/elliott903/internal/punch"
	"github.com/andrewjherbert/elliott903/internal/reader"
	"github.com/andrewjherbert/elliott903/internal/teletype"
	"github.com/andrewjherbert/elliott903/internal/trace"
)

// newTestMachine builds a Machine with every trigger disabled and its
// peripherals pointed at a scratch directory, for tests that only care
// about the CPU core.
func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	dir := t.TempDir()
	store := memory.New()
	rdr := reader.New(filepath.Join(dir, "reader"))
	pun := punch.New(filepath.Join(dir, "punch"))
	tty := teletype.New(filepath.Join(dir, "ttyin"), io.Discard, io.Discard)
	plt := plotter.New(100, 100, 1)
	tracer := trace.New(trace.Params{
		TraceAtAddress:  -1,
		TraceAfterCount: -1,
		LimitedTrace:    -1,
		Monitor:         -1,
		AbandonAfter:    -1,
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, rdr, pun, tty, plt, tracer, log)
}

// instr packs a (B-flag, function, address) triple the way the store
// holds it, mirroring initorders.instruction.
func instr(bFlag bool, f, a uint32) uint32 {
	word := (f & fnMask) << fnShift
	word |= a & addrMask
	if bFlag {
		word |= bModFlag
	}
	return word
}

func TestOpAddWraps18Bits(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Store.Write(10, memory.WordMask); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.A = 1
	if err := opAdd(m, 10); err != nil {
		t.Fatalf("opAdd: %v", err)
	}
	if m.A != 0 {
		t.Errorf("opAdd: got A=%d, expected 0 (wrapped)", m.A)
	}
}

func TestOpStoreAGuardsInitialOrders(t *testing.T) {
	m := newTestMachine(t)
	m.Level = 1
	m.A = 42
	if err := opStoreA(m, 8180); err != nil {
		t.Fatalf("opStoreA: %v", err)
	}
	v, _ := m.Store.Read(8180)
	if v == 42 {
		t.Errorf("opStoreA should not overwrite the initial orders block in level 1")
	}

	m.Level = 4
	if err := opStoreA(m, 8180); err != nil {
		t.Fatalf("opStoreA: %v", err)
	}
	v, _ = m.Store.Read(8180)
	if v != 42 {
		t.Errorf("opStoreA should write normally outside level 1, got %d", v)
	}
}

func TestOpMultiplySignedBoundaries(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Store.Write(0, memory.WordMask); err != nil { // -1
		t.Fatalf("Write: %v", err)
	}
	m.A = memory.WordMask // -1
	if err := opMultiply(m, 0); err != nil {
		t.Fatalf("opMultiply: %v", err)
	}
	// (-1) * (-1) = 1, low bit of Q carries the multiplicand's sign (negative).
	if signExtend18(m.A) != 0 {
		t.Errorf("opMultiply: A = %d, expected 0", signExtend18(m.A))
	}
	if m.Q&1 == 0 {
		t.Errorf("opMultiply: Q's bottom bit should carry the multiplicand's sign")
	}
	if m.Q>>1 != 1 {
		t.Errorf("opMultiply: (-1)*(-1) product bits wrong, got Q=%#o", m.Q)
	}
}

func TestOpDivideByZeroRecoveredAsFatal(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Store.Write(0, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.A, m.Q = 10, 0
	term := m.dispatch(13, 0)
	if term == nil {
		t.Fatalf("dispatch(divide by zero) should produce a Termination")
	}
	if term.Clean {
		t.Errorf("divide by zero should be an unclean (fatal) termination")
	}
	if term.Code != diag.ExitFatal {
		t.Errorf("divide by zero: got code %d, expected %d", term.Code, diag.ExitFatal)
	}
}

func TestOpShiftMiddleRangeIsFatal(t *testing.T) {
	m := newTestMachine(t)
	err := opShift(m, 4000) // inside the undefined [2048,6143] range
	if err == nil {
		t.Fatalf("opShift(4000) should be fatal")
	}
	term, ok := err.(*diag.Termination)
	if !ok {
		t.Fatalf("opShift(4000) error should be a *diag.Termination, got %T", err)
	}
	if term.Clean {
		t.Errorf("opShift(4000) should not be a clean termination")
	}
}

func TestOpShiftLeftAndRight(t *testing.T) {
	m := newTestMachine(t)
	m.A, m.Q = 0, 1
	if err := opShift(m, 1); err != nil { // shift A:Q left by one place
		t.Fatalf("opShift: %v", err)
	}
	if m.Q != 2 {
		t.Errorf("opShift left by 1: got Q=%d, expected 2", m.Q)
	}

	m.A, m.Q = 0, 2
	if err := opShift(m, 8191); err != nil { // shift right by 1 (8192-8191)
		t.Fatalf("opShift: %v", err)
	}
	if m.Q != 1 {
		t.Errorf("opShift right by 1: got Q=%d, expected 1", m.Q)
	}
}

func TestIOPlotterReadsBitsFromAccumulatorNotAddress(t *testing.T) {
	m := newTestMachine(t)
	m.Plotter = plotter.New(2000, 400, 0) // pen starts at (1500, 400-200)
	m.A = 32                              // BitPenDown
	if err := opIO(m, ioPlotter); err != nil {
		t.Fatalf("opIO(plotter): %v", err)
	}
	// The address's low 6 bits are all zero; only A carries the pen-down
	// bit. Had the plotter been driven from the address, the pen would
	// still be up and the paper under it still white.
	pixels, width, _ := m.Plotter.Raster()
	if pixels == nil {
		t.Fatalf("plotter command from A should have allocated the raster")
	}
	if off := (200*width + 1500) * 3; pixels[off] != 0 {
		t.Errorf("pen-down command from A should have marked the paper under the pen")
	}
}

func TestIOPlotterCostDependsOnAccumulator(t *testing.T) {
	m := newTestMachine(t)
	m.A = 5 // < 16
	before := m.EmTimeUS
	if err := opIO(m, ioPlotter); err != nil {
		t.Fatalf("opIO(plotter): %v", err)
	}
	if got := m.EmTimeUS - before; got != costPlotterFast {
		t.Errorf("plotter cost for A<16: got %d, expected %d", got, costPlotterFast)
	}

	m.A = 16
	before = m.EmTimeUS
	if err := opIO(m, ioPlotter); err != nil {
		t.Fatalf("opIO(plotter): %v", err)
	}
	if got := m.EmTimeUS - before; got != costPlotterSlow {
		t.Errorf("plotter cost for A>=16: got %d, expected %d", got, costPlotterSlow)
	}
}

func TestIOUnsupportedAddressIsFatal(t *testing.T) {
	m := newTestMachine(t)
	if err := opIO(m, 1); err == nil {
		t.Errorf("opIO with an unsupported address should be fatal")
	}
}

func TestBModificationAddsBRegister(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Store.Write(BRegLevel1, 5); err != nil { // B := 5
		t.Fatalf("Write: %v", err)
	}
	if err := m.Store.Write(15, 42); err != nil {
		t.Fatalf("Write: %v", err)
	}
	word := instr(true, 4, 10) // LoadA, B-modified, address 10 -> effective 15
	if err := m.Store.Write(100, word); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.SetStartSCR(100)

	if term := m.Step(); term != nil {
		t.Fatalf("Step: unexpected termination: %v", term)
	}
	if m.A != 42 {
		t.Errorf("B-modified LoadA: got A=%d, expected 42", m.A)
	}
}

func TestDynamicStopReportsStoppingAddress(t *testing.T) {
	m := newTestMachine(t)
	word := instr(false, 8, 50) // JumpUncond to its own address
	if err := m.Store.Write(50, word); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.SetStartSCR(50)

	term := m.Step()
	if term == nil {
		t.Fatalf("Step: expected a dynamic-stop termination")
	}
	if term.Code != diag.ExitDynamicStop {
		t.Errorf("got exit code %d, expected %d", term.Code, diag.ExitDynamicStop)
	}
	if !term.Clean {
		t.Errorf("dynamic stop should be a clean termination")
	}
	if term.SCR != 50 {
		t.Errorf("got stopping SCR %d, expected 50", term.SCR)
	}
}

// TestInstructionCountMatchesFunctionCounts exercises the invariant that
// the per-function count array always sums to the instruction count,
// including on a step that terminates from inside its opcode handler.
func TestInstructionCountMatchesFunctionCounts(t *testing.T) {
	m := newTestMachine(t)
	word := instr(false, 14, 4000) // Shift into the undefined range: fatal
	if err := m.Store.Write(200, word); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.SetStartSCR(200)

	term := m.Step()
	if term == nil {
		t.Fatalf("Step: expected a fatal termination")
	}

	var sum int64
	for _, c := range m.FCount {
		sum += c
	}
	if sum != m.ICount {
		t.Errorf("function counts sum to %d, instruction count is %d", sum, m.ICount)
	}
	if m.ICount != 1 {
		t.Errorf("ICount: got %d, expected 1", m.ICount)
	}
}

func TestMonitorDiagnosticFiresRegardlessOfVerbosity(t *testing.T) {
	m := newTestMachine(t)
	var logged bytes.Buffer
	m.Log = slog.New(slog.NewTextHandler(&logged, nil))
	m.Tracer = trace.New(trace.Params{
		TraceAtAddress:  -1,
		TraceAfterCount: -1,
		LimitedTrace:    -1,
		Monitor:         9,
		AbandonAfter:    -1,
		Verbosity:       0, // no diagnostics bit set
	})

	// First step observes the initial value; no change is reported yet.
	word := instr(false, 0, 9) // LoadB store[9], leaves word 9 unchanged
	if err := m.Store.Write(300, word); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Store.Write(301, instr(false, 8, 302)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.SetStartSCR(300)
	if term := m.Step(); term != nil {
		t.Fatalf("Step: unexpected termination: %v", term)
	}
	if logged.Len() != 0 {
		t.Fatalf("monitored word's first observation should not be reported as a change")
	}

	// Now change the monitored word and step again; the change should be
	// reported even though verbosity is zero (no diagnostics bit).
	if err := m.Store.Write(9, 1); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if term := m.Step(); term != nil {
		t.Fatalf("Step: unexpected termination: %v", term)
	}
	if !strings.Contains(logged.String(), "monitored location changed") {
		t.Errorf("expected a monitor diagnostic regardless of verbosity, got log: %q", logged.String())
	}
}
