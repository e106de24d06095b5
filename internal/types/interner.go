package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"

	"kstub/internal/names"
)

// Well-known classes.
var (
	AnyClass     = names.NewClassID("kotlin", "Any")
	UnitClass    = names.NewClassID("kotlin", "Unit")
	NothingClass = names.NewClassID("kotlin", "Nothing")
	StringClass  = names.NewClassID("kotlin", "String")
)

// Builtins stores TypeIDs for common types.
type Builtins struct {
	Any         TypeID
	NullableAny TypeID
	Unit        TypeID
	Nothing     TypeID
	String      TypeID
	Dynamic     TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Structurally equal types share one ID, so ID equality is type equality.
// Safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[string]TypeID
	builtins Builtins
	classes  map[names.ClassID]*ClassInfo
}

// NewInterner constructs an interner seeded with built-in types.
func NewInterner() *Interner {
	in := &Interner{
		types:   []Type{{Kind: KindInvalid}}, // reserve 0 as NoTypeID
		index:   make(map[string]TypeID, 64),
		classes: make(map[names.ClassID]*ClassInfo),
	}
	in.builtins.Any = in.Class(AnyClass, false)
	in.builtins.NullableAny = in.Class(AnyClass, true)
	in.builtins.Unit = in.Class(UnitClass, false)
	in.builtins.Nothing = in.Class(NothingClass, false)
	in.builtins.String = in.Class(StringClass, false)
	in.builtins.Dynamic = in.Intern(Type{Kind: KindDynamic, Nullable: true})
	in.registerBuiltinClasses()
	return in
}

// Builtins returns TypeIDs for the built-in types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(&t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id = TypeID(n)
	t.Args = slices.Clone(t.Args)
	t.Annotations = slices.Clone(t.Annotations)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Class interns a class type.
func (in *Interner) Class(id names.ClassID, nullable bool, args ...Arg) TypeID {
	return in.Intern(Type{Kind: KindClass, Class: id, Nullable: nullable, Args: args})
}

// Param interns a reference to a type parameter.
func (in *Interner) Param(name names.Name, nullable bool) TypeID {
	return in.Intern(Type{Kind: KindTypeParam, Param: name, Nullable: nullable})
}

// Flexible interns a flexible type over lower..upper. Equal bounds collapse
// to the bound itself.
func (in *Interner) Flexible(lower, upper TypeID, annotations ...names.FqName) TypeID {
	if lower == upper && len(annotations) == 0 {
		return lower
	}
	return in.Intern(Type{Kind: KindFlexible, Lower: lower, Upper: upper, Annotations: annotations})
}

// Dynamic returns the dynamic type.
func (in *Interner) Dynamic() TypeID { return in.builtins.Dynamic }

// Invariant wraps a type as an invariant argument.
func Invariant(id TypeID) Arg { return Arg{Projection: ProjInvariant, Type: id} }

// Star is the star projection.
func Star() Arg { return Arg{Projection: ProjStar} }

func typeKey(t *Type) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(t.Kind)))
	b.WriteByte('|')
	if t.Kind == KindClass {
		b.WriteString(t.Class.String())
	}
	b.WriteByte('|')
	b.WriteString(string(t.Param))
	b.WriteByte('|')
	if t.Nullable {
		b.WriteByte('?')
	}
	b.WriteByte('|')
	for _, a := range t.Args {
		b.WriteString(strconv.Itoa(int(a.Projection)))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(a.Type), 10))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, a := range t.Annotations {
		b.WriteString(string(a))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(uint64(t.Lower), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(uint64(t.Upper), 10))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(t.Scope)))
	return b.String()
}
