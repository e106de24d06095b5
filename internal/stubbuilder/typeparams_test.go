package stubbuilder

import (
	"errors"
	"testing"

	"kstub/internal/metadata"
	"kstub/internal/names"
)

func expectUnknown(t *testing.T, id int, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		var unknown *UnknownTypeParameterError
		if !ok || !errors.As(err, &unknown) {
			t.Fatalf("expected *UnknownTypeParameterError panic, got %v", r)
		}
		if unknown.ID != id {
			t.Fatalf("fault id = %d, want %d", unknown.ID, id)
		}
	}()
	fn()
}

func TestTypeParametersChain(t *testing.T) {
	r := metadata.NewResolver([]string{"T", "R"}, nil)
	s0 := EmptyTypeParameters.Child(r, []metadata.TypeParameter{{ID: 0, Name: 0}})
	s1 := s0.Child(r, []metadata.TypeParameter{{ID: 1, Name: 1}})

	if got := s1.Get(0); got != "T" {
		t.Fatalf("S1.Get(0) = %q, want T", got)
	}
	if got := s1.Get(1); got != "R" {
		t.Fatalf("S1.Get(1) = %q, want R", got)
	}
	expectUnknown(t, 1, func() { s0.Get(1) })
}

func TestTypeParametersInnerShadowsOuter(t *testing.T) {
	r := metadata.NewResolver([]string{"T", "U"}, nil)
	outer := EmptyTypeParameters.Child(r, []metadata.TypeParameter{{ID: 0, Name: 0}})
	inner := outer.Child(r, []metadata.TypeParameter{{ID: 0, Name: 1}})
	if got := inner.Get(0); got != "U" {
		t.Fatalf("inner.Get(0) = %q, want U", got)
	}
	if got := outer.Get(0); got != "T" {
		t.Fatalf("outer scope changed: %q", got)
	}
}

func TestEmptyTypeParametersFaults(t *testing.T) {
	expectUnknown(t, 3, func() { EmptyTypeParameters.Get(3) })
	err := &UnknownTypeParameterError{ID: 3}
	if err.Error() != "unknown type parameter with id = 3" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestChildWithNoParametersDelegates(t *testing.T) {
	r := metadata.NewResolver([]string{"T"}, nil)
	s0 := EmptyTypeParameters.Child(r, []metadata.TypeParameter{{ID: 4, Name: 0}})
	s1 := s0.Child(r, nil)
	if got := s1.Get(4); got != names.Name("T") {
		t.Fatalf("Get(4) = %q", got)
	}
}
