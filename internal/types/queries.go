package types

import "kstub/internal/names"

// MakeNullableAsSpecified returns id with its nullable marker set to nullable.
// Flexible types apply the change to both bounds.
func (in *Interner) MakeNullableAsSpecified(id TypeID, nullable bool) TypeID {
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case KindDynamic:
		return id
	case KindFlexible:
		return in.Flexible(
			in.MakeNullableAsSpecified(t.Lower, nullable),
			in.MakeNullableAsSpecified(t.Upper, nullable),
			t.Annotations...,
		)
	}
	if t.Nullable == nullable {
		return id
	}
	t.Nullable = nullable
	return in.Intern(t)
}

// MakeNullable marks id nullable.
func (in *Interner) MakeNullable(id TypeID) TypeID { return in.MakeNullableAsSpecified(id, true) }

// MakeNotNullable clears the nullable marker of id.
func (in *Interner) MakeNotNullable(id TypeID) TypeID { return in.MakeNullableAsSpecified(id, false) }

// IsNullable reports whether a value of the type may be null. A flexible
// type is nullable when its upper bound is.
func (in *Interner) IsNullable(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindDynamic:
		return true
	case KindFlexible:
		return in.IsNullable(t.Upper)
	default:
		return t.Nullable
	}
}

// IsFlexible reports whether id is a flexible type.
func (in *Interner) IsFlexible(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindFlexible
}

// IsDynamic reports whether id is the dynamic type.
func (in *Interner) IsDynamic(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindDynamic
}

// IsNullabilityFlexible reports whether the bounds of a flexible type
// disagree on nullability.
func (in *Interner) IsNullabilityFlexible(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindFlexible {
		return false
	}
	return in.IsNullable(t.Lower) != in.IsNullable(t.Upper)
}

// Nullability classifies id as FLEXIBLE, NULLABLE or NOT_NULL, in that order.
func (in *Interner) Nullability(id TypeID) Nullability {
	switch {
	case in.IsNullabilityFlexible(id):
		return Flexible
	case in.IsNullable(id):
		return Nullable
	default:
		return NotNull
	}
}

// IsUnit reports whether id is the non-null Unit type.
func (in *Interner) IsUnit(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindClass && t.Class == UnitClass && !t.Nullable
}

// IsAny reports whether id is Any or Any?.
func (in *Interner) IsAny(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindClass && t.Class == AnyClass
}

// Supertypes returns every ancestor of id with type arguments substituted.
// Order is unspecified; each distinct type appears once.
func (in *Interner) Supertypes(id TypeID) map[TypeID]struct{} {
	out := make(map[TypeID]struct{})
	in.collectSupertypes(id, out)
	return out
}

func (in *Interner) collectSupertypes(id TypeID, out map[TypeID]struct{}) {
	t, ok := in.Lookup(id)
	if !ok {
		return
	}
	if t.Kind == KindFlexible {
		in.collectSupertypes(t.Lower, out)
		return
	}
	if t.Kind != KindClass {
		return
	}
	info, ok := in.ClassInfo(t.Class)
	var direct []TypeID
	switch {
	case ok:
		direct = info.Supertypes
	case t.Class != AnyClass:
		direct = []TypeID{in.builtins.Any}
	}
	subst := make(map[names.Name]TypeID)
	if ok {
		for i, p := range info.TypeParams {
			if i >= len(t.Args) {
				break
			}
			arg := t.Args[i]
			if arg.Projection == ProjStar {
				subst[p] = in.builtins.NullableAny
				continue
			}
			subst[p] = arg.Type
		}
	}
	for _, s := range direct {
		st := in.Substitute(s, subst)
		if t.Nullable {
			st = in.MakeNullable(st)
		}
		if _, seen := out[st]; seen {
			continue
		}
		out[st] = struct{}{}
		in.collectSupertypes(st, out)
	}
}

// Substitute replaces type-parameter references by name. Nullable parameter
// references stay nullable after substitution.
func (in *Interner) Substitute(id TypeID, subst map[names.Name]TypeID) TypeID {
	if len(subst) == 0 {
		return id
	}
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case KindTypeParam:
		repl, ok := subst[t.Param]
		if !ok {
			return id
		}
		if t.Nullable {
			return in.MakeNullable(repl)
		}
		return repl
	case KindFlexible:
		return in.Flexible(in.Substitute(t.Lower, subst), in.Substitute(t.Upper, subst), t.Annotations...)
	case KindClass:
		if len(t.Args) == 0 {
			return id
		}
		args := make([]Arg, len(t.Args))
		for i, a := range t.Args {
			args[i] = a
			if a.Projection != ProjStar {
				args[i].Type = in.Substitute(a.Type, subst)
			}
		}
		t.Args = args
		return in.Intern(t)
	default:
		return id
	}
}

// AllReferencedTypes walks id depth-first and returns it plus every type
// reachable through type arguments, in first-seen order.
//
// Only the output set is consulted before recursing, so a cyclic type graph
// whose cycle passes through a type not yet added would recurse without bound.
// Interned types are built bottom-up and cannot form such cycles.
func (in *Interner) AllReferencedTypes(id TypeID) []TypeID {
	var order []TypeID
	seen := make(map[TypeID]struct{})
	var add func(TypeID)
	add = func(cur TypeID) {
		if _, ok := seen[cur]; !ok {
			seen[cur] = struct{}{}
			order = append(order, cur)
		}
		t, ok := in.Lookup(cur)
		if !ok {
			return
		}
		for _, a := range t.Args {
			if a.Projection == ProjStar || a.Type == NoTypeID {
				continue
			}
			add(a.Type)
		}
	}
	add(id)
	return order
}
