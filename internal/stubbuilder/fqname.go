package stubbuilder

import "kstub/internal/names"

// MemberFqNameProvider builds qualified names of members as the walk
// descends into nested declarations.
type MemberFqNameProvider struct {
	fqName names.FqName
}

// NewMemberFqNameProvider starts a path at base.
func NewMemberFqNameProvider(base names.FqName) *MemberFqNameProvider {
	return &MemberFqNameProvider{fqName: base}
}

// FqName returns the current path.
func (p *MemberFqNameProvider) FqName() names.FqName { return p.fqName }

// MemberFqName qualifies a member declared at the current level.
func (p *MemberFqNameProvider) MemberFqName(name names.Name) names.FqName {
	return p.fqName.Child(name)
}

// Child descends into a declaration called name. Members of a class object
// are qualified by the enclosing class, so class-object names and a missing
// name leave the path as is and return p itself.
func (p *MemberFqNameProvider) Child(name names.Name) *MemberFqNameProvider {
	if name == names.NoName || names.IsClassObjectName(name) {
		return p
	}
	return &MemberFqNameProvider{fqName: p.fqName.Child(name)}
}
