/*
Elliott 903 - tracing, monitoring and abandon control.

Copyright 2026, Andrew Herbert
*/

// Package trace decides, after each instruction executes, whether the
// run's diagnostics should fire: full instruction tracing, jump tracing,
// a single watched store word, and the abandon window that bounds a
// limited trace. The evaluation order mirrors the reference emulator's:
// monitor first, then trigger arming, then the print decision, then the
// abandon and dynamic-stop checks.
package trace

// Verbosity bits.
const (
	VerboseDiag = 1 << iota
	VerboseJumps
	VerboseAll
	VerboseIO
)

// abandonWindow is how many instructions a limited trace (-r) runs for
// once its trigger instruction count is reached.
const abandonWindow = 1000

// Params configures a Tracer. A negative threshold disables the
// corresponding trigger.
type Params struct {
	Verbosity uint

	TraceAtAddress  int64 // full tracing turns on once SCR reaches this address
	TraceAfterCount int64 // full tracing turns on after this many instructions
	LimitedTrace    int64 // full tracing turns on at exactly this instruction count, and arms the abandon window

	Monitor int64 // store word watched for changes

	AbandonAfter int64 // force-terminate after this many instructions
}

// Tracer holds the running state derived from Params across a run.
type Tracer struct {
	p Params

	tracing   bool // full tracing has been turned on
	traceOnce bool // force one diagnostic print regardless of tracing/verbosity
	abandonAt int64

	instrCount int64

	haveMonitor  bool
	monitorValue uint32
}

// New returns a Tracer for the given parameters.
func New(p Params) *Tracer {
	return &Tracer{p: p, abandonAt: -1}
}

// Verbose reports whether the given verbosity bit is set.
func (t *Tracer) Verbose(bit uint) bool {
	return t.p.Verbosity&bit != 0
}

// IsMonitored reports whether addr is the watched store word.
func (t *Tracer) IsMonitored(addr uint32) bool {
	return t.p.Monitor >= 0 && int64(addr) == t.p.Monitor
}

// MonitorAddr returns the watched store word, if any.
func (t *Tracer) MonitorAddr() (addr uint32, ok bool) {
	if t.p.Monitor < 0 {
		return 0, false
	}
	return uint32(t.p.Monitor), true
}

// CheckMonitor compares value against the last observed value of the
// monitored word. A change forces one diagnostic print. The first
// observation never counts as a change.
func (t *Tracer) CheckMonitor(value uint32) (changed bool) {
	if !t.haveMonitor {
		t.haveMonitor = true
		t.monitorValue = value
		return false
	}
	changed = value != t.monitorValue
	t.monitorValue = value
	if changed {
		t.traceOnce = true
	}
	return changed
}

// MarkJumpTaken records that a jump was taken on an instruction that is
// already being fully traced with jump verbosity, forcing its print.
func (t *Tracer) MarkJumpTaken() {
	if t.tracing && t.Verbose(VerboseJumps) {
		t.traceOnce = true
	}
}

// EvaluateTriggers is called once per instruction, after it executes,
// with the address it executed at and the run's instruction count so
// far (1-based). It arms full tracing and the abandon window.
func (t *Tracer) EvaluateTriggers(executedAt uint32, instrCount int64) {
	t.instrCount = instrCount

	if int64(executedAt) == t.p.TraceAtAddress || (t.p.TraceAfterCount != -1 && instrCount >= t.p.TraceAfterCount) {
		t.tracing = true
	}
	if instrCount == t.p.LimitedTrace {
		t.tracing = true
		t.abandonAt = instrCount + abandonWindow
	}
}

// ShouldPrint reports whether a diagnostic for the instruction just
// evaluated should print, and clears the one-shot force flag.
func (t *Tracer) ShouldPrint() bool {
	if t.traceOnce {
		t.traceOnce = false
		return true
	}
	return t.tracing && t.Verbose(VerboseAll)
}

// Diagnostics reports whether bit0 diagnostic reports (dynamic stop,
// limits, etc) should be emitted.
func (t *Tracer) Diagnostics() bool {
	return t.Verbose(VerboseDiag)
}

// Abandoned reports whether the instruction limit, or a limited trace's
// abandon window, has closed.
func (t *Tracer) Abandoned() bool {
	if t.abandonAt != -1 && t.instrCount >= t.abandonAt {
		return true
	}
	if t.p.AbandonAfter != -1 && t.instrCount >= t.p.AbandonAfter {
		return true
	}
	return false
}
