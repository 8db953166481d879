package trace

/*
 * Elliott 903 - tracing and monitor tests
 *
 * Copyright 2026, Andrew Herbert
 */

import "testing"

func disabledParams() Params {
	return Params{
		TraceAtAddress:  -1,
		TraceAfterCount: -1,
		LimitedTrace:    -1,
		Monitor:         -1,
		AbandonAfter:    -1,
	}
}

func TestCheckMonitorFirstObservationIsNotAChange(t *testing.T) {
	tr := New(disabledParams())
	if tr.CheckMonitor(123) {
		t.Errorf("the first observed value should never report a change")
	}
}

func TestCheckMonitorReportsChange(t *testing.T) {
	tr := New(disabledParams())
	tr.CheckMonitor(1)
	if !tr.CheckMonitor(2) {
		t.Errorf("a different value should report a change")
	}
	if tr.CheckMonitor(2) {
		t.Errorf("an unchanged value should not report a change")
	}
}

func TestCheckMonitorForcesOnePrint(t *testing.T) {
	tr := New(disabledParams())
	tr.CheckMonitor(1)
	tr.CheckMonitor(2)
	if !tr.ShouldPrint() {
		t.Errorf("a monitor change should force one diagnostic print")
	}
	if tr.ShouldPrint() {
		t.Errorf("the forced print should be one-shot")
	}
}

func TestMonitorAddrDisabled(t *testing.T) {
	tr := New(disabledParams())
	if _, ok := tr.MonitorAddr(); ok {
		t.Errorf("MonitorAddr should report disabled when Monitor is negative")
	}
}

func TestMonitorAddrEnabled(t *testing.T) {
	p := disabledParams()
	p.Monitor = 42
	tr := New(p)
	addr, ok := tr.MonitorAddr()
	if !ok || addr != 42 {
		t.Errorf("got (%d, %v), expected (42, true)", addr, ok)
	}
	if !tr.IsMonitored(42) {
		t.Errorf("IsMonitored(42) should be true")
	}
	if tr.IsMonitored(43) {
		t.Errorf("IsMonitored(43) should be false")
	}
}

func TestTraceAtAddressArmsFullTracing(t *testing.T) {
	p := disabledParams()
	p.TraceAtAddress = 100
	tr := New(p)
	tr.EvaluateTriggers(99, 1)
	if tr.tracing {
		t.Errorf("tracing should not arm before the trigger address is reached")
	}
	tr.EvaluateTriggers(100, 2)
	if !tr.tracing {
		t.Errorf("tracing should arm once SCR reaches the trigger address")
	}
}

func TestTraceAfterCountArmsFullTracing(t *testing.T) {
	p := disabledParams()
	p.TraceAfterCount = 5
	tr := New(p)
	tr.EvaluateTriggers(0, 4)
	if tr.tracing {
		t.Errorf("tracing should not arm before the instruction count threshold")
	}
	tr.EvaluateTriggers(0, 5)
	if !tr.tracing {
		t.Errorf("tracing should arm once the instruction count reaches the threshold")
	}
}

func TestLimitedTraceArmsAbandonWindow(t *testing.T) {
	p := disabledParams()
	p.LimitedTrace = 10
	tr := New(p)
	tr.EvaluateTriggers(0, 10)
	if !tr.tracing {
		t.Errorf("a limited trace trigger should also arm full tracing")
	}
	for n := int64(10); n < 10+abandonWindow; n++ {
		tr.instrCount = n
		if tr.Abandoned() {
			t.Fatalf("should not abandon before the window closes, at count %d", n)
		}
	}
	tr.instrCount = 10 + abandonWindow
	if !tr.Abandoned() {
		t.Errorf("should abandon once the 1000-instruction window closes")
	}
}

func TestAbandonAfterThreshold(t *testing.T) {
	p := disabledParams()
	p.AbandonAfter = 3
	tr := New(p)
	tr.instrCount = 2
	if tr.Abandoned() {
		t.Errorf("should not abandon before the threshold")
	}
	tr.instrCount = 3
	if !tr.Abandoned() {
		t.Errorf("should abandon once the threshold is reached")
	}
}

func TestShouldPrintGatedByVerboseAll(t *testing.T) {
	p := disabledParams()
	p.TraceAtAddress = 0
	tr := New(p)
	tr.EvaluateTriggers(0, 1)
	if tr.ShouldPrint() {
		t.Errorf("tracing without VerboseAll should not print every instruction")
	}

	p.Verbosity = VerboseAll
	tr = New(p)
	tr.EvaluateTriggers(0, 1)
	if !tr.ShouldPrint() {
		t.Errorf("tracing with VerboseAll should print every instruction")
	}
}

func TestMarkJumpTakenRequiresTracingAndVerboseJumps(t *testing.T) {
	p := disabledParams()
	tr := New(p)
	tr.MarkJumpTaken()
	if tr.ShouldPrint() {
		t.Errorf("a jump should not force a print without tracing and VerboseJumps")
	}

	p.Verbosity = VerboseJumps
	p.TraceAtAddress = 0
	tr = New(p)
	tr.EvaluateTriggers(0, 1)
	tr.MarkJumpTaken()
	if !tr.ShouldPrint() {
		t.Errorf("a taken jump under tracing and VerboseJumps should force a print")
	}
}

func TestDiagnosticsBit(t *testing.T) {
	p := disabledParams()
	tr := New(p)
	if tr.Diagnostics() {
		t.Errorf("Diagnostics() should be false without VerboseDiag")
	}
	p.Verbosity = VerboseDiag
	tr = New(p)
	if !tr.Diagnostics() {
		t.Errorf("Diagnostics() should be true with VerboseDiag set")
	}
}
