package types

import (
	"slices"

	"kstub/internal/names"
)

// ClassInfo records what the type queries need to know about a class:
// its type parameters and its direct supertypes, which may mention those
// parameters as KindTypeParam types.
type ClassInfo struct {
	ID         names.ClassID
	TypeParams []names.Name
	Supertypes []TypeID
}

// RegisterClass stores or replaces class metadata.
func (in *Interner) RegisterClass(info ClassInfo) {
	cp := ClassInfo{
		ID:         info.ID,
		TypeParams: slices.Clone(info.TypeParams),
		Supertypes: slices.Clone(info.Supertypes),
	}
	in.mu.Lock()
	in.classes[info.ID] = &cp
	in.mu.Unlock()
}

// ClassInfo returns metadata for a registered class.
func (in *Interner) ClassInfo(id names.ClassID) (*ClassInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	info, ok := in.classes[id]
	return info, ok
}

var collectionsPkg = names.FqName("kotlin.collections")

func collectionClass(name names.Name) names.ClassID {
	return names.NewClassID(collectionsPkg, name)
}

func (in *Interner) registerBuiltinClasses() {
	in.RegisterClass(ClassInfo{ID: AnyClass})
	in.RegisterClass(ClassInfo{ID: UnitClass, Supertypes: []TypeID{in.builtins.Any}})
	in.RegisterClass(ClassInfo{ID: StringClass, Supertypes: []TypeID{
		in.Class(names.NewClassID("kotlin", "Comparable"), false, Invariant(in.builtins.String)),
		in.Class(names.NewClassID("kotlin", "CharSequence"), false),
	}})

	// name, type parameters, supertypes as (class, forwarded parameter) pairs
	type super struct {
		class names.Name
		args  []names.Name
	}
	hierarchy := []struct {
		name   names.Name
		params []names.Name
		supers []super
	}{
		{"Iterable", []names.Name{"T"}, nil},
		{"MutableIterable", []names.Name{"T"}, []super{{"Iterable", []names.Name{"T"}}}},
		{"Collection", []names.Name{"E"}, []super{{"Iterable", []names.Name{"E"}}}},
		{"MutableCollection", []names.Name{"E"}, []super{{"Collection", []names.Name{"E"}}, {"MutableIterable", []names.Name{"E"}}}},
		{"List", []names.Name{"E"}, []super{{"Collection", []names.Name{"E"}}}},
		{"MutableList", []names.Name{"E"}, []super{{"List", []names.Name{"E"}}, {"MutableCollection", []names.Name{"E"}}}},
		{"Set", []names.Name{"E"}, []super{{"Collection", []names.Name{"E"}}}},
		{"MutableSet", []names.Name{"E"}, []super{{"Set", []names.Name{"E"}}, {"MutableCollection", []names.Name{"E"}}}},
		{"Map", []names.Name{"K", "V"}, nil},
		{"MutableMap", []names.Name{"K", "V"}, []super{{"Map", []names.Name{"K", "V"}}}},
		{"Iterator", []names.Name{"T"}, nil},
		{"MutableIterator", []names.Name{"T"}, []super{{"Iterator", []names.Name{"T"}}}},
		{"ListIterator", []names.Name{"T"}, []super{{"Iterator", []names.Name{"T"}}}},
		{"MutableListIterator", []names.Name{"T"}, []super{{"ListIterator", []names.Name{"T"}}, {"MutableIterator", []names.Name{"T"}}}},
	}
	for _, h := range hierarchy {
		var supers []TypeID
		for _, s := range h.supers {
			args := make([]Arg, len(s.args))
			for i, p := range s.args {
				args[i] = Invariant(in.Param(p, false))
			}
			supers = append(supers, in.Class(collectionClass(s.class), false, args...))
		}
		if len(supers) == 0 {
			supers = []TypeID{in.builtins.Any}
		}
		in.RegisterClass(ClassInfo{ID: collectionClass(h.name), TypeParams: h.params, Supertypes: supers})
	}
}
