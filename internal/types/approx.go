package types

import "kstub/internal/names"

// Marker annotations consulted when approximating flexible types.
var (
	DefaultReadOnlyAnnotation = names.FqName("org.jetbrains.annotations.ReadOnly")
	DefaultNotNullAnnotation  = names.FqName("org.jetbrains.annotations.NotNull")
)

// Approximator collapses flexible types into a single canonical type for
// display and indexing. It holds no mutable state of its own.
type Approximator struct {
	types       *Interner
	collections *CollectionMapping
	readOnly    names.FqName
	notNull     names.FqName
}

// ApproximatorOption customizes an Approximator.
type ApproximatorOption func(*Approximator)

// WithMarkerAnnotations overrides the read-only and not-null annotation names.
// Empty values keep the defaults.
func WithMarkerAnnotations(readOnly, notNull names.FqName) ApproximatorOption {
	return func(a *Approximator) {
		if readOnly != "" {
			a.readOnly = readOnly
		}
		if notNull != "" {
			a.notNull = notNull
		}
	}
}

// NewApproximator builds an approximator over the interner and collection mapping.
func NewApproximator(in *Interner, collections *CollectionMapping, opts ...ApproximatorOption) *Approximator {
	if collections == nil {
		collections = NewCollectionMapping()
	}
	a := &Approximator{
		types:       in,
		collections: collections,
		readOnly:    DefaultReadOnlyAnnotation,
		notNull:     DefaultNotNullAnnotation,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Approximate eliminates flexibility from id and from all of its arguments:
//
//	(Mutable)Collection<T>!       -> MutableCollection<T>?
//	Foo<(Mutable)Collection<T>!>! -> Foo<MutableCollection<T>>?
//	Foo!                          -> Foo?
//	Foo<Bar!>!                    -> Foo<Bar>?
//
// outermost is true for the top-level type; arguments are approximated with
// outermost=false. Results carry ScopeError: they are for display only.
func (a *Approximator) Approximate(id TypeID, outermost bool) TypeID {
	t, ok := a.types.Lookup(id)
	if !ok || t.Kind == KindDynamic {
		return id
	}
	if t.Kind == KindFlexible {
		lower, _ := a.types.Lookup(t.Lower)
		isCollection := lower.Kind == KindClass && a.collections.IsMutableCollection(lower.Class)

		var approximation TypeID
		switch {
		case isCollection && t.HasAnnotation(a.readOnly):
			approximation = a.types.MakeNullableAsSpecified(t.Upper, outermost)
		case isCollection:
			approximation = a.types.MakeNullableAsSpecified(t.Lower, outermost)
		case outermost:
			approximation = t.Upper
		default:
			approximation = t.Lower
		}
		approximated := a.Approximate(approximation, true)
		if t.HasAnnotation(a.notNull) {
			return a.types.MakeNotNullable(approximated)
		}
		return approximated
	}

	var args []Arg
	if len(t.Args) > 0 {
		args = make([]Arg, len(t.Args))
		for i, arg := range t.Args {
			args[i] = arg
			if arg.Projection != ProjStar && arg.Type != NoTypeID {
				args[i].Type = a.Approximate(arg.Type, false)
			}
		}
	}
	return a.types.Intern(Type{
		Kind:        t.Kind,
		Class:       t.Class,
		Param:       t.Param,
		Nullable:    t.Nullable,
		Args:        args,
		Annotations: t.Annotations,
		Scope:       ScopeError,
	})
}
