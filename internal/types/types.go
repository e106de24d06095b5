package types

import (
	"fmt"

	"kstub/internal/names"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the shapes a type can take.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindClass
	KindTypeParam
	KindFlexible
	KindDynamic
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindClass:
		return "class"
	case KindTypeParam:
		return "type parameter"
	case KindFlexible:
		return "flexible"
	case KindDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Projection is the variance of a type argument at use site.
type Projection uint8

const (
	ProjInvariant Projection = iota
	ProjIn
	ProjOut
	ProjStar
)

// Arg is a projected type argument. Type is NoTypeID for star projections.
type Arg struct {
	Projection Projection
	Type       TypeID
}

// MemberScope tells whether members of the type may be resolved through it.
type MemberScope uint8

const (
	ScopeResolvable MemberScope = iota
	// ScopeError marks display-only types: not valid for member resolution.
	ScopeError
)

// Type is a descriptor. Flexible types keep their bounds in Lower/Upper and
// carry the annotations of the flexible occurrence itself.
type Type struct {
	Kind        Kind
	Class       names.ClassID // KindClass
	Param       names.Name    // KindTypeParam
	Nullable    bool
	Args        []Arg
	Annotations []names.FqName
	Lower       TypeID // KindFlexible
	Upper       TypeID // KindFlexible
	Scope       MemberScope
}

// Nullability classifies a type for display.
type Nullability uint8

const (
	NotNull Nullability = iota
	Nullable
	Flexible
)

func (n Nullability) String() string {
	switch n {
	case Nullable:
		return "NULLABLE"
	case Flexible:
		return "FLEXIBLE"
	default:
		return "NOT_NULL"
	}
}

// HasAnnotation reports whether fq is among the type's annotations.
func (t *Type) HasAnnotation(fq names.FqName) bool {
	for _, a := range t.Annotations {
		if a == fq {
			return true
		}
	}
	return false
}
