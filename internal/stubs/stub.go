package stubs

import (
	"fmt"

	"kstub/internal/names"
	"kstub/internal/types"
)

// Kind enumerates stub node kinds.
type Kind uint8

const (
	KindFile Kind = iota
	KindClass
	KindObject
	KindEnumEntry
	KindFunction
	KindProperty
	KindConstructor
	KindParameter
	KindTypeParameter
	KindTypeReference
	KindSupertype
	KindAnnotationEntry
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
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
	case KindConstructor:
		return "constructor"
	case KindParameter:
		return "parameter"
	case KindTypeParameter:
		return "type parameter"
	case KindTypeReference:
		return "type reference"
	case KindSupertype:
		return "supertype"
	case KindAnnotationEntry:
		return "annotation entry"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsDeclaration reports whether stubs of this kind carry an FqName.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindClass, KindObject, KindEnumEntry, KindFunction, KindProperty:
		return true
	}
	return false
}

// Role tells a type reference stub where it is attached.
type Role uint8

const (
	RoleNone Role = iota
	RoleReceiver
	RoleReturn
	RoleBound
)

// Stub is one node of the decompiled declaration skeleton.
type Stub struct {
	Kind      Kind
	Name      names.Name
	FqName    names.FqName
	Modifiers []string
	// Text is the rendered type for type references and the annotation class
	// name for annotation entries.
	Text     string
	Type     types.TypeID
	Role     Role
	Children []*Stub
	Parent   *Stub
}

// Add appends child and returns it.
func (s *Stub) Add(child *Stub) *Stub {
	child.Parent = s
	s.Children = append(s.Children, child)
	return child
}

// ChildrenOf returns direct children of the given kind.
func (s *Stub) ChildrenOf(kind Kind) []*Stub {
	var out []*Stub
	for _, c := range s.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// TypeRef returns the type reference child with the given role.
func (s *Stub) TypeRef(role Role) *Stub {
	for _, c := range s.Children {
		if c.Kind == KindTypeReference && c.Role == role {
			return c
		}
	}
	return nil
}

// HasModifier reports whether m is among the modifiers.
func (s *Stub) HasModifier(m string) bool {
	for _, x := range s.Modifiers {
		if x == m {
			return true
		}
	}
	return false
}

// Walk visits s and its descendants depth-first, stopping a branch when fn
// returns false.
func (s *Stub) Walk(fn func(*Stub) bool) {
	if !fn(s) {
		return
	}
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// File is the stub tree of one compiled unit.
type File struct {
	Key     names.ClassID
	Package names.FqName
	Root    *Stub
}

// NewFile creates an empty file stub.
func NewFile(key names.ClassID, pkg names.FqName) *File {
	return &File{Key: key, Package: pkg, Root: &Stub{Kind: KindFile, FqName: pkg}}
}

// Declarations returns every declaration stub with the given FqName.
// Overloaded functions share a name, hence the slice.
func (f *File) Declarations(fq names.FqName) []*Stub {
	var out []*Stub
	f.Root.Walk(func(s *Stub) bool {
		if s.Kind.IsDeclaration() && s.FqName == fq {
			out = append(out, s)
		}
		return true
	})
	return out
}

// AllDeclarations lists declaration stubs in tree order.
func (f *File) AllDeclarations() []*Stub {
	var out []*Stub
	f.Root.Walk(func(s *Stub) bool {
		if s.Kind.IsDeclaration() {
			out = append(out, s)
		}
		return true
	})
	return out
}
