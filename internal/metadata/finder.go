package metadata

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"kstub/internal/names"
)

// ErrNotFound is returned when no unit is stored under a key.
var ErrNotFound = errors.New("metadata: unit not found")

// ClassData pairs a class record with the tables it was written against.
type ClassData struct {
	Resolver names.NameResolver
	Class    *Class
}

// ClassDataFinder locates the serialized descriptor of a class.
type ClassDataFinder interface {
	FindClassData(id names.ClassID) (ClassData, bool)
}

// BinaryClass is a compiled class file as seen by the annotation loader.
type BinaryClass interface {
	ClassID() names.ClassID
	LoadClassAnnotations(v AnnotationVisitor)
}

// KotlinClassFinder locates the compiled class file for a class.
type KotlinClassFinder interface {
	FindKotlinClass(id names.ClassID) (BinaryClass, bool)
}

// Repository is a browsable set of units.
type Repository interface {
	ClassDataFinder
	KotlinClassFinder
	Keys() ([]names.ClassID, error)
	Load(id names.ClassID) (*Unit, error)
}

// PackageFacadeName is the class name under which top-level callables of pkg
// are compiled: "foo.bar" -> "BarPackage", root -> "_DefaultPackage".
func PackageFacadeName(pkg names.FqName) names.Name {
	if pkg.IsRoot() {
		return "_DefaultPackage"
	}
	short := string(pkg.ShortName())
	r, size := utf8.DecodeRuneInString(short)
	return names.Name(string(unicode.ToUpper(r)) + short[size:] + "Package")
}

// PackageFacadeID is the class identifier of the package facade for pkg.
func PackageFacadeID(pkg names.FqName) names.ClassID {
	return names.NewClassID(pkg, PackageFacadeName(pkg))
}

// IsPackageFacade reports whether id names a package facade class.
func IsPackageFacade(id names.ClassID) bool {
	return !id.IsNested() && id.ShortClassName() == PackageFacadeName(id.Package)
}

// Key returns the class identifier a unit is stored under.
func (u *Unit) Key() (names.ClassID, error) {
	r := u.Resolver()
	switch u.Kind {
	case UnitClass:
		if u.Class == nil {
			return names.ClassID{}, errors.New("metadata: class unit without class record")
		}
		return r.ClassID(u.Class.FqName), nil
	case UnitPackage:
		return PackageFacadeID(r.PackageFqName(u.PackageName)), nil
	default:
		return names.ClassID{}, errors.New("metadata: unit kind is not set")
	}
}

// classFileName maps a relative class name to a file stem the way class
// files do: Outer.Inner -> Outer$Inner.
func classFileName(rel names.FqName) string {
	return strings.ReplaceAll(string(rel), ".", "$")
}

func relativeFromFileName(stem string) names.FqName {
	return names.FqName(strings.ReplaceAll(stem, "$", "."))
}
