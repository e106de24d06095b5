package stubbuilder

import (
	"fmt"

	"kstub/internal/metadata"
	"kstub/internal/names"
)

// UnknownTypeParameterError reports a type-parameter id that no enclosing
// declaration introduced. It means the metadata is corrupt or was written by
// an incompatible compiler, and it aborts the current unit.
type UnknownTypeParameterError struct {
	ID int
}

func (e *UnknownTypeParameterError) Error() string {
	return fmt.Sprintf("unknown type parameter with id = %d", e.ID)
}

// TypeParameters maps type-parameter ids to names, falling back to the
// enclosing declaration's parameters. Immutable once built.
type TypeParameters struct {
	byID   map[int]names.Name
	parent *TypeParameters
}

// EmptyTypeParameters is the root of every chain.
var EmptyTypeParameters = &TypeParameters{}

// Get returns the name of the parameter with the given id. An id unknown to
// the whole chain panics with *UnknownTypeParameterError.
func (tp *TypeParameters) Get(id int) names.Name {
	for s := tp; s != nil; s = s.parent {
		if n, ok := s.byID[id]; ok {
			return n
		}
	}
	panic(&UnknownTypeParameterError{ID: id})
}

// Child returns a new scope declaring protos, with tp as its parent.
func (tp *TypeParameters) Child(r names.NameResolver, protos []metadata.TypeParameter) *TypeParameters {
	byID := make(map[int]names.Name, len(protos))
	for _, p := range protos {
		byID[p.ID] = r.Name(p.Name)
	}
	return &TypeParameters{byID: byID, parent: tp}
}
