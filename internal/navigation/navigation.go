// Package navigation finds where a referenced compiled declaration lives in
// decompiled stubs.
package navigation

import (
	"slices"

	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/stubs"
)

// FileIndex finds the decompiled file of a top-level container class.
type FileIndex interface {
	FileFor(container names.FqName) (*stubs.File, bool)
}

// Unwrap follows fake overrides down to the declaration that really exists
// in compiled code. Other declarations are returned as is.
func Unwrap(d *Declaration) *Declaration {
	for d != nil && d.Kind.IsCallable() && d.FakeOverride && len(d.Overridden) > 0 {
		d = d.Overridden[0]
	}
	return d
}

// ContainerFqName returns the FqName of the compiled class whose file holds d:
// the package facade for top-level callables, the outermost non-local class
// otherwise. ok is false when that class has no stable name.
func ContainerFqName(d *Declaration) (fq names.FqName, ok bool) {
	c := d
	for c != nil && c.Kind != KindPackage && !c.isClassLike() {
		c = c.Container
	}
	if c == nil {
		return "", false
	}
	if c.Kind == KindPackage {
		return metadata.PackageFacadeID(c.Package).FqName(), true
	}
	if parent := c.Container; parent != nil && (parent.isClassLike() || c.Local) {
		return ContainerFqName(parent)
	}
	if c.Name.IsSpecial() {
		return "", false
	}
	return c.FqName(), true
}

// Find returns the stub declaring d in the decompiled file that contains it,
// or nil when the file or the declaration is unknown.
func Find(idx FileIndex, d *Declaration) *stubs.Stub {
	d = Unwrap(d)
	container, ok := ContainerFqName(d)
	if !ok {
		return nil
	}
	f, ok := idx.FileFor(container)
	if !ok {
		return nil
	}
	return DeclarationIn(f, d)
}

// DeclarationIn picks the stub of d among the declarations of f.
func DeclarationIn(f *stubs.File, d *Declaration) *stubs.Stub {
	kinds := stubKinds(d.Kind)
	for _, s := range f.Declarations(d.FqName()) {
		if !slices.Contains(kinds, s.Kind) {
			continue
		}
		if d.Params != nil && !sameParams(s, d.Params) {
			continue
		}
		return s
	}
	return nil
}

func sameParams(s *stubs.Stub, want []names.Name) bool {
	params := s.ChildrenOf(stubs.KindParameter)
	if len(params) != len(want) {
		return false
	}
	for i, p := range params {
		if p.Name != want[i] {
			return false
		}
	}
	return true
}
