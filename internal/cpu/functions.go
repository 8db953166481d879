/*
Elliott 903 - function code implementations.

Copyright 2026, Andrew Herbert
*/

package cpu

import (
	"errors"

	"github.com/andrewjherbert/elliott903/internal/diag"
	"github.com/andrewjherbert/elliott903/internal/initorders"
	"github.com/andrewjherbert/elliott903/internal/memory"
	"github.com/andrewjherbert/elliott903/internal/punch"
	"github.com/andrewjherbert/elliott903/internal/reader"
	"github.com/andrewjherbert/elliott903/internal/teletype"
)

// Instruction timing, in simulated microseconds, per the reference
// emulator's cost model.
const (
	costLoadB       = 30
	costAdd         = 23
	costNegateAdd   = 26
	costStoreQ      = 25
	costLoadA       = 23
	costStoreA      = 25
	costCollate     = 23
	costJumpZeroYes = 28
	costJumpZeroNo  = 20
	costJumpUncond  = 23
	costJumpNegYes  = 25
	costJumpNegNo   = 20
	costIncrement   = 24
	costStoreS      = 30
	costMultiply    = 79
	costDivide      = 79
	costShiftBase   = 24
	costShiftPerStep = 7
	costReadTape    = 4000   // 250 ch/s
	costReadTTY     = 100000 // 10 ch/s
	costPunchTape   = 9091   // 110 ch/s
	costWriteTTY    = 100000 // 10 ch/s
	costLevelTerm   = 19
	costPlotterFast = 3300  // A < 16
	costPlotterSlow = 20000 // A >= 16
)

func storeAddr(addrRaw uint32) uint32 { return addrRaw & memory.AddrMask }
func offset13(addrRaw uint32) uint32  { return addrRaw & addrMask }

// opLoadB: Q := store[m]; B := Q. Loading B passes the value through Q,
// a side effect of how the real machine wires the B register.
func opLoadB(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	m.Q = v
	m.setBReg(v)
	m.EmTimeUS += costLoadB
	return nil
}

func opAdd(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	m.A = wrap18(int64(m.A) + int64(v))
	m.EmTimeUS += costAdd
	return nil
}

func opNegateAdd(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	m.A = wrap18(int64(v) - int64(m.A))
	m.EmTimeUS += costNegateAdd
	return nil
}

// opStoreQ: store[m] := Q >> 1. Q's bottom bit holds the extra bit that
// multiply leaves there (the multiplicand's sign), which Store Q discards.
func opStoreQ(m *Machine, addrRaw uint32) error {
	if err := m.Store.Write(storeAddr(addrRaw), m.Q>>1); err != nil {
		return err
	}
	m.EmTimeUS += costStoreQ
	return nil
}

func opLoadA(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	m.A = v
	m.EmTimeUS += costLoadA
	return nil
}

// opStoreA: store[m] := A, except that priority level 1 may never
// overwrite the Initial Orders block; such a write is silently dropped
// (diagnostically reported when bit0 verbosity is on).
func opStoreA(m *Machine, addrRaw uint32) error {
	addr := storeAddr(addrRaw)
	if m.Level == 1 && initorders.InRange(addr) {
		if m.Tracer.Diagnostics() {
			m.TTY.FlushLine()
			m.Log.Info("write to initial instructions ignored in priority level 1", "addr", addr)
		}
		m.EmTimeUS += costStoreA
		return nil
	}
	if err := m.Store.Write(addr, m.A); err != nil {
		return err
	}
	m.EmTimeUS += costStoreA
	return nil
}

func opCollate(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	m.A &= v
	m.EmTimeUS += costCollate
	return nil
}

// opJumpZero: jump if A == 0.
func opJumpZero(m *Machine, addrRaw uint32) error {
	if m.A == 0 {
		m.Tracer.MarkJumpTaken()
		m.setSCR(storeAddr(addrRaw))
		m.EmTimeUS += costJumpZeroYes
	} else {
		m.EmTimeUS += costJumpZeroNo
	}
	return nil
}

func opJumpUncond(m *Machine, addrRaw uint32) error {
	m.setSCR(storeAddr(addrRaw))
	m.EmTimeUS += costJumpUncond
	return nil
}

// opJumpNeg: jump if A's sign bit is set (A is negative as an 18-bit
// two's-complement value).
func opJumpNeg(m *Machine, addrRaw uint32) error {
	if m.A&signBit18 != 0 {
		m.Tracer.MarkJumpTaken()
		m.setSCR(storeAddr(addrRaw))
		m.EmTimeUS += costJumpNegYes
	} else {
		m.EmTimeUS += costJumpNegNo
	}
	return nil
}

func opIncrement(m *Machine, addrRaw uint32) error {
	addr := storeAddr(addrRaw)
	v, err := m.Store.Read(addr)
	if err != nil {
		return err
	}
	if err := m.Store.Write(addr, wrap18(int64(v)+1)); err != nil {
		return err
	}
	m.EmTimeUS += costIncrement
	return nil
}

// opStoreS: splits the current (already-incremented) SCR into its
// module in Q and its offset in store[m], for building a return address.
func opStoreS(m *Machine, addrRaw uint32) error {
	s := m.scr()
	m.Q = s & modMask
	if err := m.Store.Write(storeAddr(addrRaw), s&addrMask); err != nil {
		return err
	}
	m.EmTimeUS += costStoreS
	return nil
}

// opMultiply: double-length product of two signed 18-bit values. Q
// receives the product's low bits doubled, with its own bottom bit
// forced to the multiplicand's sign; A receives the high bits.
func opMultiply(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	al := signExtend18(m.A)
	sl := signExtend18(v)
	prod := al * sl

	q := wrap18(prod << 1)
	if al < 0 {
		q |= 1
	}
	m.Q = q
	m.A = wrap18(prod >> 17)
	m.EmTimeUS += costMultiply
	return nil
}

// opDivide: double-length dividend A:Q divided by a signed 18-bit
// divisor. Division by zero is left to panic; the caller recovers it
// into a fatal Termination rather than defining new behaviour for it.
func opDivide(m *Machine, addrRaw uint32) error {
	v, err := m.Store.Read(storeAddr(addrRaw))
	if err != nil {
		return err
	}
	al := signExtend18(m.A)
	aq := (al << 18) | int64(m.Q)
	ml := signExtend18(v)

	quot := (aq / ml) >> 1
	q := wrap18(quot)
	m.A = q | 1
	m.Q = q &^ 1
	m.EmTimeUS += costDivide
	return nil
}

// opShift: arithmetic shift of the double-length A:Q accumulator. A
// places count in [2048,6143] has no defined meaning on the real
// machine and is fatal, matching the reference emulator.
func opShift(m *Machine, addrRaw uint32) error {
	places := int(offset13(addrRaw))
	al := signExtend18(m.A)
	aq := (al << 18) | int64(m.Q)

	switch {
	case places <= 2047:
		m.EmTimeUS += uint64(costShiftBase + costShiftPerStep*places)
		if places > 36 {
			places = 36
		}
		aq <<= uint(places)
	case places >= 6144:
		places = 8192 - places
		m.EmTimeUS += uint64(costShiftBase + costShiftPerStep*places)
		if places > 36 {
			places = 36
		}
		aq >>= uint(places)
	default:
		return diag.NewTermination(diag.ExitFatal, false, m.scr(),
			"unsupported function-14 shift count")
	}

	m.Q = wrap18(aq)
	m.A = wrap18(aq >> 18)
	return nil
}

// opIO dispatches function 15 by device address.
func opIO(m *Machine, addrRaw uint32) error {
	z := offset13(addrRaw)
	switch {
	case z == ioReadTape:
		ch, err := m.Reader.ReadByte()
		if err != nil {
			return ioTermination(err, m.scr())
		}
		m.A = wrap18((int64(m.A) << 7) | int64(ch))
		m.EmTimeUS += costReadTape
		return nil

	case z == ioReadTTY:
		ch, err := m.TTY.ReadByte()
		if err != nil {
			return ioTermination(err, m.scr())
		}
		m.A = wrap18((int64(m.A) << 7) | int64(ch))
		m.EmTimeUS += costReadTTY
		return nil

	case z == ioPunchTape:
		if err := m.Punch.PunchByte(byte(m.A & 0xFF)); err != nil {
			return ioTermination(err, m.scr())
		}
		m.EmTimeUS += costPunchTape
		return nil

	case z == ioWriteTTY:
		if err := m.TTY.WriteByte(byte(m.A & 0xFF)); err != nil {
			return ioTermination(err, m.scr())
		}
		m.EmTimeUS += costWriteTTY
		return nil

	case z == ioLevelTerm:
		m.Level = 4
		m.scrAddr = SCRLevel4
		m.bAddr = BRegLevel4
		m.EmTimeUS += costLevelTerm
		return nil

	case z == ioPlotter:
		bits := m.A & 0x3F
		m.Plotter.Command(bits)
		if m.A < 16 {
			m.EmTimeUS += costPlotterFast
		} else {
			m.EmTimeUS += costPlotterSlow
		}
		return nil

	default:
		return diag.NewTermination(diag.ExitFatal, false, m.scr(),
			"unsupported function-15 i/o instruction")
	}
}

// ioTermination maps a peripheral's sentinel error to the run's defined
// exit code for it, or to a fatal Termination for anything else (a real
// I/O failure, as opposed to a clean exhaustion/limit condition).
func ioTermination(err error, scr uint32) error {
	switch {
	case errors.Is(err, reader.ErrExhausted):
		return diag.NewTermination(diag.ExitReaderExhausted, true, scr, "paper tape reader exhausted")
	case errors.Is(err, teletype.ErrExhausted):
		return diag.NewTermination(diag.ExitTeletypeExhausted, true, scr, "teletype input exhausted")
	case errors.Is(err, punch.ErrReelFull):
		return diag.NewTermination(diag.ExitPunchExceeded, true, scr, "paper tape punch reel exceeded")
	case errors.Is(err, teletype.ErrOutputLimit):
		return diag.NewTermination(diag.ExitFatal, false, scr, "teletype output limit exceeded")
	default:
		return diag.NewTermination(diag.ExitFatal, false, scr, err.Error())
	}
}
