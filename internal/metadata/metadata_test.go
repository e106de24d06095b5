package metadata

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"kstub/internal/names"
)

func sampleClass(t *testing.T) *Unit {
	t.Helper()
	u, err := Assemble(&UnitSource{
		Package: "demo.pkg",
		Annotations: []AnnotationSource{
			{Class: "demo/pkg/Marker"},
		},
		Class: &ClassSource{
			Name:           "Box",
			TypeParameters: []TypeParameterSource{{Name: "T"}},
			Functions: []FunctionSource{{
				Name:           "map",
				TypeParameters: []TypeParameterSource{{Name: "R"}},
				Params:         []ParamSource{{Name: "f", Type: TypeSource{Class: "kotlin/Function1", Args: []ArgumentSource{{TypeSource: TypeSource{Param: "T"}}, {TypeSource: TypeSource{Param: "R"}}}}}},
				Returns:        TypeSource{Class: "demo/pkg/Box", Args: []ArgumentSource{{TypeSource: TypeSource{Param: "R"}}}},
			}},
			Nested: []string{"Inner"},
		},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return u
}

func TestAssembleAssignsScopedTypeParameterIDs(t *testing.T) {
	u := sampleClass(t)
	c := u.Class
	if got := c.TypeParameters[0].ID; got != 0 {
		t.Fatalf("class T id = %d, want 0", got)
	}
	fn := c.Functions[0]
	if got := fn.TypeParameters[0].ID; got != 1 {
		t.Fatalf("fun R id = %d, want 1", got)
	}
	arg := fn.ValueParameters[0].Type.Arguments[0].Type
	if arg.Kind != TypeParameterRef || arg.TypeParameter != 0 {
		t.Fatalf("T reference = %+v", arg)
	}
}

func TestAssembleRejectsUnknownTypeParameter(t *testing.T) {
	_, err := Assemble(&UnitSource{
		Package:   "p",
		Functions: []FunctionSource{{Name: "f", Returns: TypeSource{Param: "Missing"}}},
	})
	if err == nil {
		t.Fatalf("expected error for unknown type parameter")
	}
}

func TestResolverSplitsPackageAndClass(t *testing.T) {
	u := sampleClass(t)
	r := u.Resolver()
	id := r.ClassID(u.Class.FqName)
	want := names.ClassID{Package: "demo.pkg", Relative: "Box"}
	if id != want {
		t.Fatalf("ClassID = %+v, want %+v", id, want)
	}
	if fq := r.QualifiedClassName(u.Class.FqName); fq != "demo.pkg.Box" {
		t.Fatalf("QualifiedClassName = %q", fq)
	}
	if pkg := r.PackageFqName(u.PackageName); pkg != "demo.pkg" {
		t.Fatalf("PackageFqName = %q", pkg)
	}
}

func TestResolverPanicsOnBadIndex(t *testing.T) {
	r := NewResolver([]string{""}, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r.Name(5)
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	u := sampleClass(t)
	u.Schema = SchemaVersion + 1
	data, err := msgpack.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestStorePutLoadKeys(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cls := sampleClass(t)
	inner, err := Assemble(&UnitSource{Package: "demo.pkg", Class: &ClassSource{Name: "Box.Inner"}})
	if err != nil {
		t.Fatal(err)
	}
	facade, err := Assemble(&UnitSource{Package: "demo.pkg", Functions: []FunctionSource{{Name: "top", Returns: TypeSource{Class: "kotlin/Unit"}}}})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []*Unit{cls, inner, facade} {
		if err := s.Put(u); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"demo/pkg/Box", "demo/pkg/Box.Inner", "demo/pkg/PkgPackage"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("key[%d] = %s, want %s", i, k, want[i])
		}
	}

	data, ok := s.FindClassData(names.ClassID{Package: "demo.pkg", Relative: "Box.Inner"})
	if !ok || data.Class == nil {
		t.Fatalf("nested class data not found")
	}
	if _, ok := s.FindClassData(metadataFacade()); ok {
		t.Fatalf("package facade must not be class data")
	}
	if _, err := s.Load(names.NewClassID("demo.pkg", "Nope")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func metadataFacade() names.ClassID { return PackageFacadeID("demo.pkg") }

type recordingVisitor struct {
	classes []names.ClassID
	args    *argRecorder
}

func (v *recordingVisitor) VisitAnnotation(id names.ClassID) AnnotationArgumentVisitor {
	v.classes = append(v.classes, id)
	return v.args
}

type argRecorder struct {
	values map[names.Name]any
	ended  int
}

func (a *argRecorder) Visit(name names.Name, value any) { a.values[name] = value }

func (a *argRecorder) VisitEnum(name names.Name, enumClass names.ClassID, entry names.Name) {
	a.values[name] = enumClass.Nested(entry)
}

func (a *argRecorder) VisitAnnotation(names.Name, names.ClassID) AnnotationArgumentVisitor {
	return nil
}

func (a *argRecorder) End() { a.ended++ }

func TestVisitAnnotationsReplaysArguments(t *testing.T) {
	u, err := Assemble(&UnitSource{
		Package: "p",
		Functions: []FunctionSource{{
			Name:    "f",
			Returns: TypeSource{Class: "kotlin/Unit"},
			Annotations: []AnnotationSource{{
				Class: "p/Ann",
				Args: []AnnotationArgSource{
					{Name: "count", Value: 3},
					{Name: "label", Value: "x"},
					{Name: "level", Enum: "p/Level.HIGH"},
					{Name: "tags", Value: []any{"a", "b"}},
				},
			}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	v := &recordingVisitor{args: &argRecorder{values: map[names.Name]any{}}}
	VisitAnnotations(u.Resolver(), u.Package.Functions[0].Annotations, v)

	if len(v.classes) != 1 || v.classes[0] != names.NewClassID("p", "Ann") {
		t.Fatalf("classes = %v", v.classes)
	}
	vals := v.args.values
	if vals["count"] != int64(3) || vals["label"] != "x" {
		t.Fatalf("literal args = %v", vals)
	}
	if vals["level"] != names.NewClassID("p", "Level").Nested("HIGH") {
		t.Fatalf("enum arg = %v", vals["level"])
	}
	if tags, ok := vals["tags"].([]any); !ok || len(tags) != 2 {
		t.Fatalf("array arg = %v", vals["tags"])
	}
	if v.args.ended != 1 {
		t.Fatalf("End called %d times", v.args.ended)
	}
}

func TestPackageFacadeName(t *testing.T) {
	if got := PackageFacadeName("foo.bar"); got != "BarPackage" {
		t.Fatalf("facade = %q", got)
	}
	if got := PackageFacadeName(names.RootFqName); got != "_DefaultPackage" {
		t.Fatalf("root facade = %q", got)
	}
	if !IsPackageFacade(PackageFacadeID("foo.bar")) || IsPackageFacade(names.NewClassID("foo.bar", "Baz")) {
		t.Fatalf("IsPackageFacade mismatch")
	}
}
