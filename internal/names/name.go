package names

import "strings"

// Name is a single identifier segment. Names enclosed in angle brackets are
// special (synthetic) and never appear in source code.
type Name string

// NoName marks the absence of a name.
const NoName Name = ""

const classObjectPrefix = "<class-object-for-"

// IsSpecial reports whether the name is synthetic.
func (n Name) IsSpecial() bool {
	return strings.HasPrefix(string(n), "<") && strings.HasSuffix(string(n), ">")
}

func (n Name) String() string { return string(n) }

// ClassObjectName builds the synthetic name of the class object (companion)
// declared inside className.
func ClassObjectName(className Name) Name {
	return Name(classObjectPrefix + string(className) + ">")
}

// IsClassObjectName reports whether n is a synthetic class-object name.
func IsClassObjectName(n Name) bool {
	return n.IsSpecial() && strings.HasPrefix(string(n), classObjectPrefix)
}

// FqName is a dot-separated fully qualified name. The empty value is the root.
type FqName string

// RootFqName is the root package.
const RootFqName FqName = ""

// ParseFqName normalizes a dotted name, dropping surrounding whitespace and dots.
func ParseFqName(s string) FqName {
	return FqName(strings.Trim(strings.TrimSpace(s), "."))
}

// IsRoot reports whether fq denotes the root package.
func (fq FqName) IsRoot() bool { return fq == RootFqName }

// Child appends a segment.
func (fq FqName) Child(n Name) FqName {
	if fq.IsRoot() {
		return FqName(n)
	}
	return FqName(string(fq) + "." + string(n))
}

// Parent drops the last segment. The parent of a single segment is the root.
func (fq FqName) Parent() FqName {
	i := strings.LastIndexByte(string(fq), '.')
	if i < 0 {
		return RootFqName
	}
	return fq[:i]
}

// ShortName returns the last segment.
func (fq FqName) ShortName() Name {
	i := strings.LastIndexByte(string(fq), '.')
	return Name(fq[i+1:])
}

// Segments returns every segment in order. Root has none.
func (fq FqName) Segments() []Name {
	if fq.IsRoot() {
		return nil
	}
	parts := strings.Split(string(fq), ".")
	out := make([]Name, len(parts))
	for i, p := range parts {
		out[i] = Name(p)
	}
	return out
}

// StartsWith reports whether prefix is fq itself or one of its ancestors.
func (fq FqName) StartsWith(prefix FqName) bool {
	if prefix.IsRoot() {
		return true
	}
	return fq == prefix || strings.HasPrefix(string(fq), string(prefix)+".")
}

func (fq FqName) String() string { return string(fq) }

// ClassID identifies a class by its package and its name relative to the package.
// Nested classes have a multi-segment relative name.
type ClassID struct {
	Package  FqName
	Relative FqName
	Local    bool
}

// NewClassID builds a top-level class identifier.
func NewClassID(pkg FqName, name Name) ClassID {
	return ClassID{Package: pkg, Relative: FqName(name)}
}

// TopLevelClassID splits a fully qualified top-level class name.
func TopLevelClassID(fq FqName) ClassID {
	return ClassID{Package: fq.Parent(), Relative: FqName(fq.ShortName())}
}

// ParseClassID reads the "a/b/Outer.Inner" form produced by String.
func ParseClassID(s string) ClassID {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return ClassID{Relative: FqName(s)}
	}
	return ClassID{
		Package:  FqName(strings.ReplaceAll(s[:i], "/", ".")),
		Relative: FqName(s[i+1:]),
	}
}

// IsZero reports whether the identifier is unset.
func (id ClassID) IsZero() bool { return id.Relative.IsRoot() }

// ShortClassName returns the innermost class name.
func (id ClassID) ShortClassName() Name { return id.Relative.ShortName() }

// IsNested reports whether the class is declared inside another class.
func (id ClassID) IsNested() bool { return strings.Contains(string(id.Relative), ".") }

// Outer returns the enclosing class, or false for top-level classes.
func (id ClassID) Outer() (ClassID, bool) {
	if !id.IsNested() {
		return ClassID{}, false
	}
	return ClassID{Package: id.Package, Relative: id.Relative.Parent(), Local: id.Local}, true
}

// Outermost returns the top-level class containing id.
func (id ClassID) Outermost() ClassID {
	first := id.Relative.Segments()
	if len(first) == 0 {
		return id
	}
	return ClassID{Package: id.Package, Relative: FqName(first[0]), Local: id.Local}
}

// Nested returns the identifier of a class nested inside id.
func (id ClassID) Nested(name Name) ClassID {
	return ClassID{Package: id.Package, Relative: id.Relative.Child(name), Local: id.Local}
}

// FqName returns the single fully qualified name of the class.
func (id ClassID) FqName() FqName {
	if id.Package.IsRoot() {
		return id.Relative
	}
	return FqName(string(id.Package) + "." + string(id.Relative))
}

func (id ClassID) String() string {
	if id.Package.IsRoot() {
		return "/" + string(id.Relative)
	}
	return strings.ReplaceAll(string(id.Package), ".", "/") + "/" + string(id.Relative)
}
