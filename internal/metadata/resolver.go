package metadata

import (
	"fmt"
	"slices"

	"kstub/internal/names"
)

// Resolver implements names.NameResolver over one unit's tables.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	strings   []string
	qualified []QualifiedName
}

var _ names.NameResolver = (*Resolver)(nil)

// NewResolver wraps the string and qualified-name tables of a unit.
func NewResolver(strings []string, qualified []QualifiedName) *Resolver {
	return &Resolver{strings: strings, qualified: qualified}
}

// Resolver returns the name resolver for the unit's tables.
func (u *Unit) Resolver() *Resolver {
	return NewResolver(u.Strings, u.QualifiedNames)
}

// Name returns the string at index as a Name.
func (r *Resolver) Name(index int) names.Name {
	if index < 0 || index >= len(r.strings) {
		panic(fmt.Errorf("metadata: string index %d out of range [0,%d)", index, len(r.strings)))
	}
	return names.Name(r.strings[index])
}

// QualifiedClassName returns the fully qualified name of the class at index.
func (r *Resolver) QualifiedClassName(index int) names.FqName {
	return r.ClassID(index).FqName()
}

// ClassID splits the qualified-name chain at index into package and class parts.
func (r *Resolver) ClassID(index int) names.ClassID {
	var pkg, cls []names.Name
	local := false
	for i := index; i != -1; {
		if i < 0 || i >= len(r.qualified) {
			panic(fmt.Errorf("metadata: qualified name index %d out of range [0,%d)", i, len(r.qualified)))
		}
		q := r.qualified[i]
		short := r.Name(q.ShortName)
		switch q.Kind {
		case QualifiedPackage:
			pkg = append(pkg, short)
		case QualifiedLocal:
			local = true
			cls = append(cls, short)
		default:
			cls = append(cls, short)
		}
		i = q.Parent
	}
	slices.Reverse(pkg)
	slices.Reverse(cls)
	return names.ClassID{Package: joinNames(pkg), Relative: joinNames(cls), Local: local}
}

// PackageFqName resolves a package qualified-name index; -1 is the root.
func (r *Resolver) PackageFqName(index int) names.FqName {
	if index == -1 {
		return names.RootFqName
	}
	var segs []names.Name
	for i := index; i != -1; i = r.qualified[i].Parent {
		if i < 0 || i >= len(r.qualified) {
			panic(fmt.Errorf("metadata: qualified name index %d out of range [0,%d)", i, len(r.qualified)))
		}
		segs = append(segs, r.Name(r.qualified[i].ShortName))
	}
	slices.Reverse(segs)
	return joinNames(segs)
}

func joinNames(segs []names.Name) names.FqName {
	fq := names.RootFqName
	for _, s := range segs {
		fq = fq.Child(s)
	}
	return fq
}
