package stubbuilder

import (
	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/types"
)

// Components is the long-lived, read-only bundle shared by every context
// derived from it. Build it once per indexing session.
type Components struct {
	ClassDataFinder  metadata.ClassDataFinder
	AnnotationLoader *AnnotationLoader
	Types            *types.Interner
	Approximator     *types.Approximator
}

// NewComponents wires the finders of repo with fresh type machinery.
// collections may be nil for the standard mapping.
func NewComponents(repo metadata.Repository, collections *types.CollectionMapping, opts ...types.ApproximatorOption) *Components {
	in := types.NewInterner()
	return &Components{
		ClassDataFinder:  repo,
		AnnotationLoader: NewAnnotationLoader(repo),
		Types:            in,
		Approximator:     types.NewApproximator(in, collections, opts...),
	}
}

// CreateContext builds the root context of a unit in package pkg.
func (c *Components) CreateContext(r names.NameResolver, pkg names.FqName) Context {
	return Context{
		components:     c,
		nameResolver:   r,
		memberFqNames:  NewMemberFqNameProvider(pkg),
		typeParameters: EmptyTypeParameters,
	}
}

// Context is the scoped state at one point of the walk. It is a small value;
// derivations return modified copies and never touch the receiver.
type Context struct {
	components     *Components
	nameResolver   names.NameResolver
	memberFqNames  *MemberFqNameProvider
	typeParameters *TypeParameters
}

func (c Context) Components() *Components { return c.components }
func (c Context) NameResolver() names.NameResolver { return c.nameResolver }
func (c Context) MemberFqNames() *MemberFqNameProvider { return c.memberFqNames }
func (c Context) TypeParameters() *TypeParameters { return c.typeParameters }

// child enters a declaration introducing typeParams and, when name is set,
// a new path segment. Parameter names resolve through the current table.
func (c Context) child(typeParams []metadata.TypeParameter, name names.Name) Context {
	c.memberFqNames = c.memberFqNames.Child(name)
	c.typeParameters = c.typeParameters.Child(c.nameResolver, typeParams)
	return c
}

// withNameResolver switches to another string table at the same nesting depth.
func (c Context) withNameResolver(r names.NameResolver) Context {
	c.nameResolver = r
	return c
}
