package stubbuilder

import (
	"context"
	"errors"
	"fmt"

	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/stubs"
	"kstub/internal/trace"
	"kstub/internal/types"
)

// Builder turns metadata units into stub files. A Builder only reads its
// components and may be shared by concurrent BuildUnit calls.
type Builder struct {
	components *Components
}

func NewBuilder(c *Components) *Builder {
	return &Builder{components: c}
}

func (b *Builder) Components() *Components { return b.components }

// BuildUnit builds the stub file of u. A type-parameter id that no enclosing
// declaration introduced aborts the unit with *UnknownTypeParameterError;
// any other panic is a bug and propagates.
func (b *Builder) BuildUnit(ctx context.Context, u *metadata.Unit) (file *stubs.File, err error) {
	key, err := u.Key()
	if err != nil {
		return nil, err
	}
	ctx, span := trace.BeginCtx(ctx, trace.ScopeUnit, "unit:"+key.String())
	defer func() {
		if r := recover(); r != nil {
			var unknown *UnknownTypeParameterError
			e, ok := r.(error)
			if !ok || !errors.As(e, &unknown) {
				panic(r)
			}
			file, err = nil, fmt.Errorf("build %s: %w", key, unknown)
			span.End(err.Error())
			return
		}
		span.End("")
	}()

	r := u.Resolver()
	pkg := r.PackageFqName(u.PackageName)
	file = stubs.NewFile(key, pkg)
	w := &walker{b: b, tracer: trace.FromContext(ctx), parent: span.ID()}
	c := b.components.CreateContext(r, pkg)

	switch u.Kind {
	case metadata.UnitPackage:
		if u.Package != nil {
			w.callables(file.Root, c, u.Package.Functions, u.Package.Properties)
		}
	case metadata.UnitClass:
		// A nested class built on its own starts below its outer classes.
		if outer, ok := key.Outer(); ok {
			for _, seg := range outer.Relative.Segments() {
				c.memberFqNames = c.memberFqNames.Child(seg)
			}
		}
		w.class(file.Root, c, key, u.Class)
	}
	return file, nil
}

// walker carries per-call state so the Builder itself stays immutable.
type walker struct {
	b      *Builder
	tracer trace.Tracer
	parent uint64
}

func (w *walker) class(parent *stubs.Stub, c Context, id names.ClassID, cls *metadata.Class) {
	shortName := id.ShortClassName()
	span := trace.Begin(w.tracer, trace.ScopeDecl, "class:"+id.FqName().String(), w.parent)
	defer span.End("")

	cc := c.child(cls.TypeParameters, shortName)
	kind := stubs.KindClass
	if cls.Kind == metadata.ClassKindObject || cls.Kind == metadata.ClassKindClassObject {
		kind = stubs.KindObject
	}
	s := parent.Add(&stubs.Stub{
		Kind:      kind,
		Name:      shortName,
		FqName:    c.memberFqNames.MemberFqName(shortName),
		Modifiers: classModifiers(cls),
		Text:      cls.Kind.String(),
	})
	w.annotationEntries(s, c.components.AnnotationLoader.LoadClassAnnotations(id))
	w.typeParameters(s, cc, cls.TypeParameters)

	supers := make([]types.TypeID, 0, len(cls.Supertypes))
	for i := range cls.Supertypes {
		st := w.typeID(cc, &cls.Supertypes[i])
		supers = append(supers, st)
		if t := c.components.Types.MustLookup(st); t.Kind == types.KindClass && t.Class == types.AnyClass {
			continue
		}
		canon := c.components.Approximator.Approximate(st, true)
		s.Add(&stubs.Stub{Kind: stubs.KindSupertype, Type: canon, Text: types.Label(c.components.Types, canon)})
	}
	c.components.Types.RegisterClass(types.ClassInfo{
		ID:         id,
		TypeParams: typeParamNames(cc.nameResolver, cls.TypeParameters),
		Supertypes: supers,
	})

	for _, e := range cls.EnumEntries {
		name := cc.nameResolver.Name(e)
		s.Add(&stubs.Stub{Kind: stubs.KindEnumEntry, Name: name, FqName: cc.memberFqNames.MemberFqName(name)})
	}
	for i := range cls.Constructors {
		w.constructor(s, cc, &cls.Constructors[i])
	}
	w.callables(s, cc, cls.Functions, cls.Properties)

	if cls.HasClassObject {
		w.nested(s, cc, id.Nested(names.ClassObjectName(shortName)))
	}
	for _, n := range cls.NestedNames {
		w.nested(s, cc, id.Nested(cc.nameResolver.Name(n)))
	}
}

// nested builds a nested class from its own unit, resolving its strings
// through that unit's table but keeping the enclosing scopes.
func (w *walker) nested(parent *stubs.Stub, c Context, id names.ClassID) {
	data, ok := c.components.ClassDataFinder.FindClassData(id)
	if !ok {
		trace.Point(w.tracer, trace.ScopeDecl, "missing:"+id.String(), "nested class data not found", w.parent)
		return
	}
	w.class(parent, c.withNameResolver(data.Resolver), id, data.Class)
}

func (w *walker) callables(parent *stubs.Stub, c Context, fns []metadata.Function, props []metadata.Property) {
	for i := range props {
		w.property(parent, c, &props[i])
	}
	for i := range fns {
		w.function(parent, c, &fns[i])
	}
}

func (w *walker) function(parent *stubs.Stub, c Context, fn *metadata.Function) {
	name := c.nameResolver.Name(fn.Name)
	fc := c.child(fn.TypeParameters, names.NoName)
	mods := []string{fn.Visibility.String(), fn.Modality.String()}
	if fn.Inline {
		mods = append(mods, "inline")
	}
	s := parent.Add(&stubs.Stub{
		Kind:      stubs.KindFunction,
		Name:      name,
		FqName:    c.memberFqNames.MemberFqName(name),
		Modifiers: mods,
	})
	w.annotationEntries(s, c.components.AnnotationLoader.LoadAnnotations(c.nameResolver, fn.Annotations))
	w.typeParameters(s, fc, fn.TypeParameters)
	if fn.Receiver != nil {
		w.typeReference(s, fc, fn.Receiver, stubs.RoleReceiver)
	}
	w.valueParameters(s, fc, fn.ValueParameters)
	w.typeReference(s, fc, &fn.ReturnType, stubs.RoleReturn)
}

func (w *walker) property(parent *stubs.Stub, c Context, p *metadata.Property) {
	name := c.nameResolver.Name(p.Name)
	pc := c.child(p.TypeParameters, names.NoName)
	mods := []string{p.Visibility.String(), p.Modality.String()}
	if p.Var {
		mods = append(mods, "var")
	}
	s := parent.Add(&stubs.Stub{
		Kind:      stubs.KindProperty,
		Name:      name,
		FqName:    c.memberFqNames.MemberFqName(name),
		Modifiers: mods,
	})
	w.annotationEntries(s, c.components.AnnotationLoader.LoadAnnotations(c.nameResolver, p.Annotations))
	w.typeParameters(s, pc, p.TypeParameters)
	if p.Receiver != nil {
		w.typeReference(s, pc, p.Receiver, stubs.RoleReceiver)
	}
	w.typeReference(s, pc, &p.ReturnType, stubs.RoleReturn)
	if p.Constant != nil {
		if v := c.components.AnnotationLoader.LoadConstant(p.Constant.Desc, p.Constant.Value); v != nil {
			s.Text = fmt.Sprint(v)
		}
	}
}

func (w *walker) constructor(parent *stubs.Stub, c Context, ctor *metadata.Constructor) {
	s := parent.Add(&stubs.Stub{
		Kind:      stubs.KindConstructor,
		Modifiers: []string{ctor.Visibility.String()},
	})
	w.annotationEntries(s, c.components.AnnotationLoader.LoadAnnotations(c.nameResolver, ctor.Annotations))
	w.valueParameters(s, c, ctor.ValueParameters)
}

func (w *walker) valueParameters(parent *stubs.Stub, c Context, params []metadata.ValueParameter) {
	for i := range params {
		p := &params[i]
		s := parent.Add(&stubs.Stub{Kind: stubs.KindParameter, Name: c.nameResolver.Name(p.Name)})
		w.annotationEntries(s, c.components.AnnotationLoader.LoadAnnotations(c.nameResolver, p.Annotations))
		t := &p.Type
		if p.VarargElement != nil {
			s.Modifiers = append(s.Modifiers, "vararg")
			t = p.VarargElement
		}
		if p.DeclaresDefault {
			s.Modifiers = append(s.Modifiers, "default")
		}
		w.typeReference(s, c, t, stubs.RoleNone)
	}
}

// typeParameters emits one stub per parameter. c must already include them,
// since bounds may refer to any parameter of the same list.
func (w *walker) typeParameters(parent *stubs.Stub, c Context, params []metadata.TypeParameter) {
	for i := range params {
		p := &params[i]
		s := parent.Add(&stubs.Stub{Kind: stubs.KindTypeParameter, Name: c.nameResolver.Name(p.Name)})
		if p.Reified {
			s.Modifiers = append(s.Modifiers, "reified")
		}
		switch p.Variance {
		case metadata.VarianceIn:
			s.Modifiers = append(s.Modifiers, "in")
		case metadata.VarianceOut:
			s.Modifiers = append(s.Modifiers, "out")
		}
		for j := range p.UpperBounds {
			id := w.typeID(c, &p.UpperBounds[j])
			if id == c.components.Types.Builtins().NullableAny {
				continue
			}
			w.addTypeReference(s, c, id, stubs.RoleBound)
		}
	}
}

func (w *walker) annotationEntries(parent *stubs.Stub, classes []names.ClassID) {
	for _, id := range classes {
		fq := id.FqName()
		parent.Add(&stubs.Stub{Kind: stubs.KindAnnotationEntry, Name: fq.ShortName(), Text: fq.String()})
	}
}

func (w *walker) typeReference(parent *stubs.Stub, c Context, t *metadata.Type, role stubs.Role) {
	w.addTypeReference(parent, c, w.typeID(c, t), role)
}

// addTypeReference stores the approximated, display-only form of id.
func (w *walker) addTypeReference(parent *stubs.Stub, c Context, id types.TypeID, role stubs.Role) {
	in := c.components.Types
	canon := c.components.Approximator.Approximate(id, true)
	parent.Add(&stubs.Stub{Kind: stubs.KindTypeReference, Type: canon, Role: role, Text: types.Label(in, canon)})
}

// typeID interns a metadata type. Type-parameter references resolve through
// the context's scope chain and panic when the id is unknown.
func (w *walker) typeID(c Context, t *metadata.Type) types.TypeID {
	in := c.components.Types
	var id types.TypeID
	switch t.Kind {
	case metadata.TypeDynamic:
		return in.Dynamic()
	case metadata.TypeParameterRef:
		id = in.Param(c.typeParameters.Get(t.TypeParameter), t.Nullable)
	default:
		args := make([]types.Arg, len(t.Arguments))
		for i, a := range t.Arguments {
			if a.Projection == metadata.ProjectionStar || a.Type == nil {
				args[i] = types.Star()
				continue
			}
			args[i] = types.Arg{Projection: types.Projection(a.Projection), Type: w.typeID(c, a.Type)}
		}
		id = in.Class(c.nameResolver.ClassID(t.ClassName), t.Nullable, args...)
	}

	var anns []names.FqName
	for _, a := range t.Annotations {
		anns = append(anns, c.nameResolver.QualifiedClassName(a))
	}
	if t.FlexibleUpper != nil {
		return in.Flexible(id, w.typeID(c, t.FlexibleUpper), anns...)
	}
	if len(anns) > 0 {
		desc := in.MustLookup(id)
		desc.Annotations = anns
		return in.Intern(desc)
	}
	return id
}

func classModifiers(cls *metadata.Class) []string {
	mods := []string{cls.Visibility.String()}
	switch cls.Kind {
	case metadata.ClassKindClass, metadata.ClassKindEnumClass:
		mods = append(mods, cls.Modality.String())
	}
	if cls.Inner {
		mods = append(mods, "inner")
	}
	return mods
}

func typeParamNames(r names.NameResolver, params []metadata.TypeParameter) []names.Name {
	out := make([]names.Name, len(params))
	for i, p := range params {
		out[i] = r.Name(p.Name)
	}
	return out
}
