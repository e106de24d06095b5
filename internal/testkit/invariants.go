// Package testkit holds structural checks shared by tests of the packages
// that produce stub trees.
package testkit

import (
	"fmt"

	"kstub/internal/names"
	"kstub/internal/stubs"
)

// CheckStubInvariants runs a minimal set of invariants on a built file:
// 1) the root is a file stub named after the package
// 2) every child points back at its parent
// 3) every declaration is named by its container's member path plus its name,
// where class objects add no segment to the path of their members
// 4) every type reference and supertype carries rendered text
func CheckStubInvariants(f *stubs.File) error {
	if f == nil || f.Root == nil {
		return fmt.Errorf("nil file")
	}
	if f.Root.Kind != stubs.KindFile {
		return fmt.Errorf("root is %s, not file", f.Root.Kind)
	}
	if f.Root.FqName != f.Package {
		return fmt.Errorf("root fq name %q differs from package %q", f.Root.FqName, f.Package)
	}
	top := f.Package
	if outer, ok := f.Key.Outer(); ok {
		top = outer.FqName()
	}
	return checkChildren(f.Root, top)
}

func checkChildren(parent *stubs.Stub, prefix names.FqName) error {
	for _, c := range parent.Children {
		if c.Parent != parent {
			return fmt.Errorf("%s %q: parent link is broken", c.Kind, c.Name)
		}
		switch c.Kind {
		case stubs.KindTypeReference, stubs.KindSupertype:
			if c.Text == "" {
				return fmt.Errorf("%s under %q has no text", c.Kind, parent.FqName)
			}
		}
		inner := prefix
		if c.Kind.IsDeclaration() {
			if want := prefix.Child(c.Name); c.FqName != want {
				return fmt.Errorf("%s %q: fq name %q, want %q", c.Kind, c.Name, c.FqName, want)
			}
			if (c.Kind == stubs.KindClass || c.Kind == stubs.KindObject) && !names.IsClassObjectName(c.Name) {
				inner = c.FqName
			}
		}
		if err := checkChildren(c, inner); err != nil {
			return err
		}
	}
	return nil
}
