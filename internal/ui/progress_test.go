package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"kstub/internal/index"
)

func TestProgressModelTracksUnits(t *testing.T) {
	m := NewProgressModel("indexing", []string{"a/B", "a/C"}, nil).(*progressModel)

	m.applyEvent(index.Event{Unit: "a/B", Stage: index.StageBuild, Status: index.StatusWorking})
	if m.items[0].status != "building" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if p := m.percent(); p <= 0 || p >= 0.5 {
		t.Fatalf("percent while building = %v", p)
	}
	m.applyEvent(index.Event{Unit: "a/B", Stage: index.StageBuild, Status: index.StatusDone})
	m.applyEvent(index.Event{Unit: "a/C", Stage: index.StageBuild, Status: index.StatusError, Err: errors.New("boom")})
	m.applyEvent(index.Event{Unit: "x/Unknown", Status: index.StatusDone})
	if p := m.percent(); p != 1 {
		t.Fatalf("percent at end = %v", p)
	}
	done, failed := m.counts()
	if done != 1 || failed != 1 {
		t.Fatalf("counts = %d, %d", done, failed)
	}
	if v := m.View(); !strings.Contains(v, "2/2 units, 1 failed") {
		t.Fatalf("view:\n%s", v)
	}
}

func TestProgressModelLimitsRows(t *testing.T) {
	units := make([]string, 40)
	for i := range units {
		units[i] = fmt.Sprintf("p/U%d", i)
	}
	m := NewProgressModel("indexing", units, nil).(*progressModel)
	m.applyEvent(index.Event{Unit: "p/U7", Stage: index.StageLoad, Status: index.StatusWorking})
	m.applyEvent(index.Event{Unit: "p/U30", Stage: index.StageBuild, Status: index.StatusError})

	rows := m.visible()
	if len(rows) != 2 || rows[0].unit != "p/U30" || rows[1].unit != "p/U7" {
		t.Fatalf("visible = %+v", rows)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("kotlin/collections/MutableList", 10); got != "kotlin/..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
