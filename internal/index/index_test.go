package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/navigation"
	"kstub/internal/stubbuilder"
	"kstub/internal/testkit"
)

func put(t *testing.T, repo interface{ Put(*metadata.Unit) error }, src *metadata.UnitSource) {
	t.Helper()
	u, err := metadata.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := repo.Put(u); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func sampleRepo(t *testing.T, dir string) *metadata.Store {
	t.Helper()
	store, err := metadata.OpenStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	put(t, store, &metadata.UnitSource{
		Package: "lib",
		Class: &metadata.ClassSource{
			Name:           "Box",
			TypeParameters: []metadata.TypeParameterSource{{Name: "T"}},
			Functions:      []metadata.FunctionSource{{Name: "get", Returns: metadata.TypeSource{Param: "T"}}},
			Nested:         []string{"Inner"},
		},
	})
	put(t, store, &metadata.UnitSource{
		Package: "lib",
		Class: &metadata.ClassSource{
			Name:        "Box.Inner",
			Inner:       true,
			OuterParams: map[string]int{"T": 0},
			Functions:   []metadata.FunctionSource{{Name: "outer", Returns: metadata.TypeSource{Param: "T"}}},
		},
	})
	put(t, store, &metadata.UnitSource{
		Package:   "lib",
		Functions: []metadata.FunctionSource{{Name: "top", Returns: metadata.TypeSource{Class: "kotlin/Unit"}}},
	})
	// Orphan: its outer class is absent, so it is built alone and fails on
	// the outer type parameter.
	put(t, store, &metadata.UnitSource{
		Package: "lib",
		Class: &metadata.ClassSource{
			Name:        "Gone.Orphan",
			Inner:       true,
			OuterParams: map[string]int{"X": 0},
			Functions:   []metadata.FunctionSource{{Name: "x", Returns: metadata.TypeSource{Param: "X"}}},
		},
	})
	return store
}

func TestPlanGroupsNestedUnits(t *testing.T) {
	store := sampleRepo(t, t.TempDir())
	plan, err := NewPlan(store)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Roots) != 3 || len(plan.Nested) != 1 {
		t.Fatalf("plan = %+v", plan)
	}
	if plan.Nested[0] != names.ParseClassID("lib/Box.Inner") {
		t.Fatalf("nested = %v", plan.Nested)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) final() map[string]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Status)
	for _, ev := range s.events {
		if ev.Unit != "" {
			out[ev.Unit] = ev.Status
		}
	}
	return out
}

func TestRunBuildsUnitsAndIsolatesFailures(t *testing.T) {
	store := sampleRepo(t, t.TempDir())
	b := stubbuilder.NewBuilder(stubbuilder.NewComponents(store, nil))
	sink := &recordingSink{}

	res, err := Run(context.Background(), store, b, Options{Jobs: 2, Sink: sink})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Nested != 1 || len(res.Units) != 3 {
		t.Fatalf("units = %d nested = %d", len(res.Units), res.Nested)
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Key != names.ParseClassID("lib/Gone.Orphan") {
		t.Fatalf("failed = %+v", failed)
	}
	var unknown *stubbuilder.UnknownTypeParameterError
	if !errors.As(failed[0].Err, &unknown) {
		t.Fatalf("failure should carry the unknown parameter: %v", failed[0].Err)
	}

	for _, u := range res.Units {
		if u.Err != nil {
			continue
		}
		if err := testkit.CheckStubInvariants(u.File); err != nil {
			t.Fatalf("%s: %v", u.Key, err)
		}
	}

	if got := res.Lookup("lib.Box.Inner.outer"); len(got) != 1 {
		t.Fatalf("nested member not indexed: %v", got)
	}
	if got := res.Lookup("lib.top"); len(got) != 1 {
		t.Fatalf("top-level function not indexed: %v", got)
	}
	if _, ok := res.FileFor("lib.LibPackage"); !ok {
		t.Fatalf("package facade file missing")
	}
	if s := navigation.Find(res, navigation.Package("lib").Class("Box").Class("Inner").Function("outer")); s == nil {
		t.Fatalf("navigation through the index failed")
	}

	final := sink.final()
	if final["lib/Box"] != StatusDone || final["lib/Gone.Orphan"] != StatusError {
		t.Fatalf("final statuses = %v", final)
	}
	if len(res.Timings.Phases) != 2 || res.Timings.Phases[0].Name != "scan" {
		t.Fatalf("timings = %+v", res.Timings)
	}
	if fs := SortedFailures(res); len(fs) != 1 {
		t.Fatalf("formatted failures = %v", fs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := sampleRepo(t, t.TempDir())
	b := stubbuilder.NewBuilder(stubbuilder.NewComponents(store, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, store, b, Options{Jobs: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Unit: "a/B", Status: StatusDone})
	if ev := <-ch; ev.Unit != "a/B" {
		t.Fatalf("event = %+v", ev)
	}
	ChannelSink{}.OnEvent(Event{})
}
