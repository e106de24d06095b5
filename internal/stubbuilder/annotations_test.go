package stubbuilder

import (
	"testing"

	"kstub/internal/metadata"
	"kstub/internal/names"
)

func TestLoadConstantIsAlwaysNil(t *testing.T) {
	l := NewAnnotationLoader(nil)
	for _, v := range []any{int64(1), "s", nil} {
		if got := l.LoadConstant("I", v); got != nil {
			t.Fatalf("LoadConstant(%v) = %v", v, got)
		}
	}
}

func TestLoadAnnotationRecordsClassAndSkipsArguments(t *testing.T) {
	l := NewAnnotationLoader(nil)
	var result []names.ClassID
	a := names.ParseClassID("p/A")
	b := names.ParseClassID("p/B")
	if v := l.LoadAnnotation(a, &result); v != nil {
		t.Fatalf("argument visitor should be nil")
	}
	l.LoadAnnotation(b, &result)
	l.LoadAnnotation(a, &result)
	if len(result) != 3 || result[0] != a || result[1] != b || result[2] != a {
		t.Fatalf("result = %v", result)
	}
}

func TestLoadClassAnnotations(t *testing.T) {
	store := metadata.NewMemStore()
	u, err := metadata.Assemble(&metadata.UnitSource{
		Package: "p",
		Annotations: []metadata.AnnotationSource{
			{Class: "p/Marker", Args: []metadata.AnnotationArgSource{{Name: "value", Value: "x"}}},
			{Class: "kotlin/jvm/internal/KotlinClass"},
			{Class: "p/Other"},
		},
		Class: &metadata.ClassSource{Name: "C"},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := store.Put(u); err != nil {
		t.Fatalf("put: %v", err)
	}
	l := NewAnnotationLoader(store)
	got := l.LoadClassAnnotations(names.ParseClassID("p/C"))
	if len(got) != 2 || got[0].FqName() != "p.Marker" || got[1].FqName() != "p.Other" {
		t.Fatalf("class annotations = %v", got)
	}
	if got := l.LoadClassAnnotations(names.ParseClassID("p/Missing")); got != nil {
		t.Fatalf("missing class should have no annotations: %v", got)
	}
}
