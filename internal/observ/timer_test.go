package observ

import (
	"strings"
	"testing"
)

func TestTimerReportsPhasesInOrder(t *testing.T) {
	tm := NewTimer()
	scan := tm.Begin("scan")
	tm.End(scan, "3 units")
	build := tm.Begin("build")
	tm.End(build, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "scan" || r.Phases[1].Name != "build" {
		t.Fatalf("unexpected phases: %+v", r.Phases)
	}
	if r.Phases[0].Note != "3 units" {
		t.Fatalf("note lost: %+v", r.Phases[0])
	}
	s := tm.Summary()
	if !strings.Contains(s, "// 3 units") || !strings.Contains(s, "total") {
		t.Fatalf("summary missing fields:\n%s", s)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(0, "")
	if len(tm.Report().Phases) != 0 || tm.Phases() != nil {
		t.Fatalf("nil timer should report nothing")
	}
}
