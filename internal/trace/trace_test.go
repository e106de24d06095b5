package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeDecl, false},
		{LevelDebug, ScopeDecl, true},
		{LevelError, ScopeUnit, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if lvl, err := ParseLevel("DETAIL"); err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRingKeepsNewestEvents(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeDecl, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	var got []string
	for _, ev := range snap {
		got = append(got, ev.Name)
	}
	if strings.Join(got, ",") != "b,c,d" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestSpansNestThroughContext(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), r)

	ctx, outer := BeginCtx(ctx, ScopePass, "build")
	_, inner := BeginCtx(ctx, ScopeUnit, "unit:a/B")
	_, hidden := BeginCtx(ctx, ScopeDecl, "class:a.B")
	hidden.End("")
	inner.End("")
	outer.End("ok")

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events (decl filtered), got %d", len(snap))
	}
	if snap[1].ParentID != outer.ID() {
		t.Fatalf("inner span parent = %d, want %d", snap[1].ParentID, outer.ID())
	}
	if hidden.ID() != outer.ID() {
		t.Fatalf("filtered span should report its parent id")
	}
	if snap[3].Detail != "ok" {
		t.Fatalf("end detail lost: %+v", snap[3])
	}
}

func TestChromeStreamIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatChrome)
	s := Begin(st, ScopeDriver, "index", 0)
	Point(st, ScopePass, "scan", "12 units", s.ID())
	s.End("")
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome output: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 {
		t.Fatalf("expected 3 events, got %d", len(doc.TraceEvents))
	}
	if doc.TraceEvents[0]["ph"] != "B" || doc.TraceEvents[2]["ph"] != "E" {
		t.Fatalf("unexpected phases: %v", doc.TraceEvents)
	}
}

func TestNewPicksFormatFromPath(t *testing.T) {
	if DetectFormat("out.ndjson") != FormatNDJSON || DetectFormat("trace.json") != FormatChrome || DetectFormat("trace.log") != FormatText {
		t.Fatalf("format detection mismatch")
	}
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if RingOf(tr) == nil {
		t.Fatalf("error level should record into a ring")
	}
}

func TestHeartbeatReportsOpenSpans(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	before := OpenSpans()
	span := Begin(r, ScopePass, "build", 0)
	if OpenSpans() != before+1 {
		t.Fatalf("open spans = %d, want %d", OpenSpans(), before+1)
	}

	h := StartHeartbeat(r, 2*time.Millisecond)
	var beat *Event
	for deadline := time.Now().Add(2 * time.Second); beat == nil && time.Now().Before(deadline); {
		time.Sleep(5 * time.Millisecond)
		for _, ev := range r.Snapshot() {
			if ev.Kind == KindHeartbeat {
				beat = &ev
				break
			}
		}
	}
	h.Stop()
	h.Stop()
	if beat == nil {
		t.Fatalf("no heartbeat recorded")
	}
	if n, err := strconv.Atoi(beat.Extra["open_spans"]); err != nil || n < 1 {
		t.Fatalf("open_spans = %q", beat.Extra["open_spans"])
	}

	span.End("")
	span.End("again")
	if OpenSpans() != before {
		t.Fatalf("open spans after end = %d, want %d", OpenSpans(), before)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat on a disabled tracer should be nil")
	}
}
