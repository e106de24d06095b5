package stubbuilder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/stubs"
	"kstub/internal/testkit"
	"kstub/internal/trace"
	"kstub/internal/types"
)

func stringType() metadata.TypeSource { return metadata.TypeSource{Class: "kotlin/String"} }

func arg(ts metadata.TypeSource) metadata.ArgumentSource {
	return metadata.ArgumentSource{TypeSource: ts}
}

func param(name string) metadata.TypeSource { return metadata.TypeSource{Param: name} }

func boxStore(t *testing.T) *metadata.MemStore {
	t.Helper()
	one := 1
	sources := []*metadata.UnitSource{
		{
			Package:     "demo",
			Annotations: []metadata.AnnotationSource{{Class: "demo/Marker"}, {Class: "kotlin/jvm/internal/KotlinClass"}},
			Class: &metadata.ClassSource{
				Name:           "Box",
				Modality:       "open",
				TypeParameters: []metadata.TypeParameterSource{{Name: "T", Variance: "out"}},
				Supertypes: []metadata.TypeSource{
					{Class: "kotlin/Comparable", Args: []metadata.ArgumentSource{arg(metadata.TypeSource{Class: "demo/Box", Args: []metadata.ArgumentSource{arg(param("T"))}})}},
					{Class: "kotlin/Any"},
				},
				Constructors: []metadata.ConstructorSource{{Params: []metadata.ParamSource{{Name: "value", Type: param("T")}}}},
				Properties: []metadata.PropertySource{
					{Name: "items", Type: metadata.TypeSource{
						Class: "kotlin/collections/MutableList", Args: []metadata.ArgumentSource{arg(stringType())},
						Upper: &metadata.TypeSource{Class: "kotlin/collections/List", Nullable: true, Args: []metadata.ArgumentSource{arg(stringType())}},
					}},
					{Name: "view", Type: metadata.TypeSource{
						Class: "kotlin/collections/MutableList", Args: []metadata.ArgumentSource{arg(stringType())},
						Upper:       &metadata.TypeSource{Class: "kotlin/collections/List", Nullable: true, Args: []metadata.ArgumentSource{arg(stringType())}},
						Annotations: []string{"org/jetbrains/annotations/ReadOnly"},
					}},
					{Name: "label", Var: true, Type: metadata.TypeSource{
						Class:       "kotlin/String",
						Upper:       &metadata.TypeSource{Class: "kotlin/String", Nullable: true},
						Annotations: []string{"org/jetbrains/annotations/NotNull"},
					}, Const: &metadata.ConstSource{Desc: "Ljava/lang/String;", Value: "x"}},
				},
				Functions: []metadata.FunctionSource{{
					Name:           "map",
					TypeParameters: []metadata.TypeParameterSource{{Name: "R"}},
					Params: []metadata.ParamSource{{Name: "f", Type: metadata.TypeSource{
						Class: "kotlin/Function1", Args: []metadata.ArgumentSource{arg(param("T")), arg(param("R"))},
					}}},
					Returns:     metadata.TypeSource{Class: "demo/Box", Args: []metadata.ArgumentSource{arg(param("R"))}},
					Annotations: []metadata.AnnotationSource{{Class: "kotlin/Deprecated"}},
				}},
				Nested:      []string{"Inner", "Gone"},
				ClassObject: true,
			},
		},
		{
			Package: "demo",
			Class: &metadata.ClassSource{
				Name:           "Box.Inner",
				Inner:          true,
				OuterParams:    map[string]int{"T": 0},
				TypeParameters: []metadata.TypeParameterSource{{Name: "U", ID: &one}},
				Functions: []metadata.FunctionSource{{
					Name:    "pair",
					Params:  []metadata.ParamSource{{Name: "u", Type: param("U")}},
					Returns: metadata.TypeSource{Class: "kotlin/Pair", Args: []metadata.ArgumentSource{arg(param("T")), arg(param("U"))}},
				}},
			},
		},
		{
			Package: "demo",
			Class: &metadata.ClassSource{
				Name: "Box.<class-object-for-Box>",
				Kind: "class object",
				Functions: []metadata.FunctionSource{{
					Name:    "create",
					Returns: metadata.TypeSource{Class: "demo/Box", Args: []metadata.ArgumentSource{arg(stringType())}},
				}},
			},
		},
		{
			Package: "demo",
			Functions: []metadata.FunctionSource{{
				Name:           "top",
				TypeParameters: []metadata.TypeParameterSource{{Name: "E", Reified: true, Bounds: []metadata.TypeSource{{Class: "kotlin/Number"}}}},
				Receiver:       &metadata.TypeSource{Class: "kotlin/collections/List", Args: []metadata.ArgumentSource{arg(param("E"))}},
				Params:         []metadata.ParamSource{{Name: "xs", Vararg: true, Type: metadata.TypeSource{Class: "kotlin/Array"}, Default: true}},
				Returns:        metadata.TypeSource{Class: "kotlin/Unit"},
			}},
		},
	}
	store := metadata.NewMemStore()
	for _, src := range sources {
		u, err := metadata.Assemble(src)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		if err := store.Put(u); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return store
}

func buildKey(t *testing.T, b *Builder, store *metadata.MemStore, key string) *stubs.File {
	t.Helper()
	u, err := store.Load(names.ParseClassID(key))
	if err != nil {
		t.Fatalf("load %s: %v", key, err)
	}
	f, err := b.BuildUnit(context.Background(), u)
	if err != nil {
		t.Fatalf("build %s: %v", key, err)
	}
	if err := testkit.CheckStubInvariants(f); err != nil {
		t.Fatalf("build %s: %v", key, err)
	}
	return f
}

func onlyDecl(t *testing.T, f *stubs.File, fq names.FqName) *stubs.Stub {
	t.Helper()
	ds := f.Declarations(fq)
	if len(ds) != 1 {
		t.Fatalf("declarations of %s = %d, want 1", fq, len(ds))
	}
	return ds[0]
}

func typeText(t *testing.T, s *stubs.Stub, role stubs.Role) string {
	t.Helper()
	ref := s.TypeRef(role)
	if ref == nil {
		t.Fatalf("%s has no type reference with role %d", s.FqName, role)
	}
	return ref.Text
}

func TestBuildClassMemberNames(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	f := buildKey(t, b, store, "demo/Box")

	want := []string{
		"demo.Box",
		"demo.Box.items",
		"demo.Box.view",
		"demo.Box.label",
		"demo.Box.map",
		"demo.Box.<class-object-for-Box>",
		"demo.Box.create",
		"demo.Box.Inner",
		"demo.Box.Inner.pair",
	}
	var got []string
	for _, d := range f.AllDeclarations() {
		got = append(got, string(d.FqName))
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("declarations:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestBuildResolvesTypeParametersAcrossNesting(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	f := buildKey(t, b, store, "demo/Box")

	mapFn := onlyDecl(t, f, "demo.Box.map")
	if got := typeText(t, mapFn, stubs.RoleReturn); got != "demo.Box<R>" {
		t.Fatalf("map return = %q", got)
	}
	params := mapFn.ChildrenOf(stubs.KindParameter)
	if len(params) != 1 || typeText(t, params[0], stubs.RoleNone) != "kotlin.Function1<T, R>" {
		t.Fatalf("map params = %+v", params)
	}

	pair := onlyDecl(t, f, "demo.Box.Inner.pair")
	if got := typeText(t, pair, stubs.RoleReturn); got != "kotlin.Pair<T, U>" {
		t.Fatalf("pair return = %q", got)
	}

	box := onlyDecl(t, f, "demo.Box")
	supers := box.ChildrenOf(stubs.KindSupertype)
	if len(supers) != 1 || supers[0].Text != "kotlin.Comparable<demo.Box<T>>" {
		t.Fatalf("supertypes = %+v", supers)
	}
	tps := box.ChildrenOf(stubs.KindTypeParameter)
	if len(tps) != 1 || tps[0].Name != "T" || !tps[0].HasModifier("out") {
		t.Fatalf("type parameters = %+v", tps)
	}
	info, ok := b.Components().Types.ClassInfo(names.ParseClassID("demo/Box"))
	if !ok || len(info.TypeParams) != 1 || len(info.Supertypes) != 2 {
		t.Fatalf("class info = %+v, %v", info, ok)
	}
}

func TestBuildApproximatesFlexibleTypes(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	f := buildKey(t, b, store, "demo/Box")

	cases := map[names.FqName]string{
		"demo.Box.items": "kotlin.collections.MutableList<kotlin.String>?",
		"demo.Box.view":  "kotlin.collections.List<kotlin.String>?",
		"demo.Box.label": "kotlin.String",
	}
	in := b.Components().Types
	for fq, want := range cases {
		ref := onlyDecl(t, f, fq).TypeRef(stubs.RoleReturn)
		if ref.Text != want {
			t.Errorf("%s: type = %q, want %q", fq, ref.Text, want)
		}
		if in.MustLookup(ref.Type).Scope != types.ScopeError {
			t.Errorf("%s: stored type should be display-only", fq)
		}
	}
	if label := onlyDecl(t, f, "demo.Box.label"); label.Text != "" || !label.HasModifier("var") {
		t.Fatalf("constant initializer leaked into stub: %+v", label)
	}
}

func TestBuildAnnotations(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	f := buildKey(t, b, store, "demo/Box")

	anns := onlyDecl(t, f, "demo.Box").ChildrenOf(stubs.KindAnnotationEntry)
	if len(anns) != 1 || anns[0].Text != "demo.Marker" {
		t.Fatalf("class annotations = %+v", anns)
	}
	anns = onlyDecl(t, f, "demo.Box.map").ChildrenOf(stubs.KindAnnotationEntry)
	if len(anns) != 1 || anns[0].Text != "kotlin.Deprecated" {
		t.Fatalf("function annotations = %+v", anns)
	}
}

func TestBuildPackageFacade(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	f := buildKey(t, b, store, "demo/DemoPackage")

	top := onlyDecl(t, f, "demo.top")
	if got := typeText(t, top, stubs.RoleReceiver); got != "kotlin.collections.List<E>" {
		t.Fatalf("receiver = %q", got)
	}
	tp := top.ChildrenOf(stubs.KindTypeParameter)[0]
	if !tp.HasModifier("reified") || typeText(t, tp, stubs.RoleBound) != "kotlin.Number" {
		t.Fatalf("type parameter = %+v", tp)
	}
	p := top.ChildrenOf(stubs.KindParameter)[0]
	if !p.HasModifier("vararg") || !p.HasModifier("default") {
		t.Fatalf("parameter modifiers = %v", p.Modifiers)
	}

	var buf bytes.Buffer
	if err := stubs.Render(&buf, f); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "package demo\n\npublic final fun <reified E : kotlin.Number> kotlin.collections.List<E>.top(vararg xs: kotlin.Array = ...): kotlin.Unit { /* compiled code */ }\n"
	if buf.String() != want {
		t.Fatalf("render:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestBuildNestedUnitOnItsOwn(t *testing.T) {
	store := boxStore(t)
	b := NewBuilder(NewComponents(store, nil))
	u, err := store.Load(names.ParseClassID("demo/Box.<class-object-for-Box>"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f, err := b.BuildUnit(context.Background(), u)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	onlyDecl(t, f, "demo.Box.create")
}

func TestBuildAbortsUnitOnUnknownTypeParameter(t *testing.T) {
	store := boxStore(t)
	u, err := store.Load(names.ParseClassID("demo/Box.Inner"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Built standalone, Inner cannot see the T of its outer class.
	ring := trace.NewRingTracer(32, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	f, err := NewBuilder(NewComponents(store, nil)).BuildUnit(ctx, u)
	var unknown *UnknownTypeParameterError
	if !errors.As(err, &unknown) || unknown.ID != 0 {
		t.Fatalf("err = %v, want unknown type parameter 0", err)
	}
	if f != nil {
		t.Fatalf("aborted unit should not produce a file")
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[1].Detail == "" {
		t.Fatalf("unit span should end with the failure: %+v", snap)
	}
}

func TestBuilderPropagatesOtherPanics(t *testing.T) {
	store := boxStore(t)
	u, err := store.Load(names.ParseClassID("demo/Box"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	u.Class.Functions[0].Name = 10_000
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for a corrupt string index")
		}
	}()
	_, _ = NewBuilder(NewComponents(store, nil)).BuildUnit(context.Background(), u)
}
