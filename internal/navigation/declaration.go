package navigation

import (
	"kstub/internal/names"
	"kstub/internal/stubs"
)

// Kind classifies a referenced declaration.
type Kind uint8

const (
	KindPackage Kind = iota
	KindClass
	KindObject
	KindEnumEntry
	KindFunction
	KindProperty
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindClass:
		return "class"
	case KindObject:
		return "object"
	case KindEnumEntry:
		return "enum entry"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// IsCallable reports whether declarations of this kind can be inherited as
// fake overrides.
func (k Kind) IsCallable() bool { return k == KindFunction || k == KindProperty }

// Declaration is a reference to something declared in compiled code, as a
// resolver sees it: a chain of containers ending at a package.
type Declaration struct {
	Kind      Kind
	Name      names.Name
	Package   names.FqName // KindPackage only
	Container *Declaration
	// Local marks a class declared inside a function body.
	Local bool
	// Params, when non-nil, selects one overload by parameter names.
	Params []names.Name
	// FakeOverride marks a member that a class inherits without declaring
	// it; Overridden lists what it was inherited from.
	FakeOverride bool
	Overridden   []*Declaration
}

// Package returns the declaration of package fq.
func Package(fq names.FqName) *Declaration {
	return &Declaration{Kind: KindPackage, Package: fq}
}

func (d *Declaration) add(kind Kind, name names.Name) *Declaration {
	return &Declaration{Kind: kind, Name: name, Container: d}
}

func (d *Declaration) Class(name names.Name) *Declaration { return d.add(KindClass, name) }
func (d *Declaration) Object(name names.Name) *Declaration { return d.add(KindObject, name) }
func (d *Declaration) Property(name names.Name) *Declaration { return d.add(KindProperty, name) }
func (d *Declaration) EnumEntry(name names.Name) *Declaration { return d.add(KindEnumEntry, name) }

// ClassObject returns the class object of class d.
func (d *Declaration) ClassObject() *Declaration {
	return d.add(KindObject, names.ClassObjectName(d.Name))
}

// LocalClass returns a class declared inside function d.
func (d *Declaration) LocalClass(name names.Name) *Declaration {
	c := d.add(KindClass, name)
	c.Local = true
	return c
}

// Function returns a function of d. Without params any overload matches.
func (d *Declaration) Function(name names.Name, params ...names.Name) *Declaration {
	f := d.add(KindFunction, name)
	if params != nil {
		f.Params = params
	}
	return f
}

// InheritedBy returns a fake override of callable d seen through class c.
func (d *Declaration) InheritedBy(c *Declaration) *Declaration {
	return &Declaration{
		Kind:         d.Kind,
		Name:         d.Name,
		Container:    c,
		Params:       d.Params,
		FakeOverride: true,
		Overridden:   []*Declaration{d},
	}
}

func (d *Declaration) isClassLike() bool {
	return d.Kind == KindClass || d.Kind == KindObject
}

// memberPath is the prefix that members declared inside d are qualified
// with. Class objects add no segment.
func memberPath(d *Declaration) names.FqName {
	switch {
	case d == nil:
		return names.RootFqName
	case d.Kind == KindPackage:
		return d.Package
	case d.isClassLike() && !names.IsClassObjectName(d.Name):
		return memberPath(d.Container).Child(d.Name)
	default:
		return memberPath(d.Container)
	}
}

// FqName is the qualified name the stub of d is recorded under.
func (d *Declaration) FqName() names.FqName {
	if d.Kind == KindPackage {
		return d.Package
	}
	return memberPath(d.Container).Child(d.Name)
}

// FromStub rebuilds the declaration chain of a declaration stub in f.
func FromStub(f *stubs.File, s *stubs.Stub) *Declaration {
	if s == nil || s.Kind == stubs.KindFile {
		return Package(f.Package)
	}
	container := FromStub(f, s.Parent)
	d := container.add(kindOfStub(s.Kind), s.Name)
	if d.Kind == KindFunction {
		d.Params = []names.Name{}
		for _, p := range s.ChildrenOf(stubs.KindParameter) {
			d.Params = append(d.Params, p.Name)
		}
	}
	return d
}

func kindOfStub(k stubs.Kind) Kind {
	switch k {
	case stubs.KindObject:
		return KindObject
	case stubs.KindEnumEntry:
		return KindEnumEntry
	case stubs.KindFunction:
		return KindFunction
	case stubs.KindProperty:
		return KindProperty
	default:
		return KindClass
	}
}

func stubKinds(k Kind) []stubs.Kind {
	switch k {
	case KindClass:
		return []stubs.Kind{stubs.KindClass}
	case KindObject:
		return []stubs.Kind{stubs.KindObject}
	case KindEnumEntry:
		return []stubs.Kind{stubs.KindEnumEntry}
	case KindFunction:
		return []stubs.Kind{stubs.KindFunction}
	case KindProperty:
		return []stubs.Kind{stubs.KindProperty}
	}
	return nil
}
