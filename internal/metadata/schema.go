package metadata

// SchemaVersion is bumped whenever the on-disk layout of Unit changes.
const SchemaVersion uint16 = 3

// UnitKind distinguishes class files from package facades.
type UnitKind uint8

const (
	UnitInvalid UnitKind = iota
	UnitClass
	UnitPackage
)

func (k UnitKind) String() string {
	switch k {
	case UnitClass:
		return "class"
	case UnitPackage:
		return "package"
	default:
		return "invalid"
	}
}

// QualifiedNameKind tells how a qualified-name entry joins its parent.
type QualifiedNameKind uint8

const (
	QualifiedClass QualifiedNameKind = iota
	QualifiedPackage
	QualifiedLocal
)

// QualifiedName is one link of a qualified-name chain. Parent is -1 at the root.
type QualifiedName struct {
	Parent    int               `msgpack:"p"`
	ShortName int               `msgpack:"s"`
	Kind      QualifiedNameKind `msgpack:"k"`
}

// Unit is the serialized metadata of one compiled class file.
type Unit struct {
	Schema         uint16          `msgpack:"schema"`
	Kind           UnitKind        `msgpack:"kind"`
	PackageName    int             `msgpack:"pkg"` // qualified-name index, -1 for root
	Strings        []string        `msgpack:"strings"`
	QualifiedNames []QualifiedName `msgpack:"qnames"`
	Class          *Class          `msgpack:"class,omitempty"`
	Package        *Package        `msgpack:"package,omitempty"`
	// Annotations recorded on the class file itself, visible through KotlinClassFinder.
	Annotations []Annotation `msgpack:"annotations,omitempty"`
}

// ClassKind enumerates class-like declarations.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindEnumClass
	ClassKindEnumEntry
	ClassKindAnnotationClass
	ClassKindObject
	ClassKindClassObject
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "trait"
	case ClassKindEnumClass:
		return "enum class"
	case ClassKindEnumEntry:
		return "enum entry"
	case ClassKindAnnotationClass:
		return "annotation class"
	case ClassKindObject:
		return "object"
	case ClassKindClassObject:
		return "class object"
	default:
		return "class"
	}
}

// Modality of a class or member.
type Modality uint8

const (
	ModalityFinal Modality = iota
	ModalityOpen
	ModalityAbstract
)

func (m Modality) String() string {
	switch m {
	case ModalityOpen:
		return "open"
	case ModalityAbstract:
		return "abstract"
	default:
		return "final"
	}
}

// Visibility of a class or member.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityInternal
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityInternal:
		return "internal"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}

// Class describes one class declaration. Nested classes live in their own units.
type Class struct {
	Kind           ClassKind       `msgpack:"kind"`
	Modality       Modality        `msgpack:"modality"`
	Visibility     Visibility      `msgpack:"vis"`
	Inner          bool            `msgpack:"inner,omitempty"`
	FqName         int             `msgpack:"fq"` // qualified-name index
	TypeParameters []TypeParameter `msgpack:"tparams,omitempty"`
	Supertypes     []Type          `msgpack:"supers,omitempty"`
	Constructors   []Constructor   `msgpack:"ctors,omitempty"`
	Functions      []Function      `msgpack:"funs,omitempty"`
	Properties     []Property      `msgpack:"props,omitempty"`
	NestedNames    []int           `msgpack:"nested,omitempty"` // string indices
	EnumEntries    []int           `msgpack:"entries,omitempty"`
	HasClassObject bool            `msgpack:"classobj,omitempty"`
}

// Package holds the top-level callables of a package facade.
type Package struct {
	Functions  []Function `msgpack:"funs,omitempty"`
	Properties []Property `msgpack:"props,omitempty"`
}

// Variance of a type parameter.
type Variance uint8

const (
	VarianceInvariant Variance = iota
	VarianceIn
	VarianceOut
)

// TypeParameter is a generic parameter. ID is unique within the unit.
type TypeParameter struct {
	ID          int      `msgpack:"id"`
	Name        int      `msgpack:"name"`
	Reified     bool     `msgpack:"reified,omitempty"`
	Variance    Variance `msgpack:"var,omitempty"`
	UpperBounds []Type   `msgpack:"bounds,omitempty"`
}

// TypeKind selects what a Type refers to.
type TypeKind uint8

const (
	TypeClass TypeKind = iota
	TypeParameterRef
	TypeDynamic
)

// Type is the lower bound of a (possibly flexible) type. A flexible type also
// carries its upper bound.
type Type struct {
	Kind          TypeKind   `msgpack:"k"`
	ClassName     int        `msgpack:"c,omitempty"` // qualified-name index
	TypeParameter int        `msgpack:"tp,omitempty"`
	Nullable      bool       `msgpack:"n,omitempty"`
	Arguments     []Argument `msgpack:"args,omitempty"`
	FlexibleUpper *Type      `msgpack:"upper,omitempty"`
	Annotations   []int      `msgpack:"ann,omitempty"` // qualified-name indices of marker annotations
}

// Projection of a type argument.
type Projection uint8

const (
	ProjectionInvariant Projection = iota
	ProjectionIn
	ProjectionOut
	ProjectionStar
)

// Argument is one type argument. Type is nil for star projections.
type Argument struct {
	Projection Projection `msgpack:"p,omitempty"`
	Type       *Type      `msgpack:"t,omitempty"`
}

// Function is a named function member or top-level function.
type Function struct {
	Name            int              `msgpack:"name"`
	Visibility      Visibility       `msgpack:"vis,omitempty"`
	Modality        Modality         `msgpack:"modality,omitempty"`
	Inline          bool             `msgpack:"inline,omitempty"`
	TypeParameters  []TypeParameter  `msgpack:"tparams,omitempty"`
	Receiver        *Type            `msgpack:"recv,omitempty"`
	ValueParameters []ValueParameter `msgpack:"params,omitempty"`
	ReturnType      Type             `msgpack:"ret"`
	Annotations     []Annotation     `msgpack:"annotations,omitempty"`
}

// Property is a val/var member or top-level property.
type Property struct {
	Name           int             `msgpack:"name"`
	Visibility     Visibility      `msgpack:"vis,omitempty"`
	Modality       Modality        `msgpack:"modality,omitempty"`
	Var            bool            `msgpack:"var,omitempty"`
	TypeParameters []TypeParameter `msgpack:"tparams,omitempty"`
	Receiver       *Type           `msgpack:"recv,omitempty"`
	ReturnType     Type            `msgpack:"ret"`
	Annotations    []Annotation    `msgpack:"annotations,omitempty"`
	Constant       *Constant       `msgpack:"const,omitempty"`
}

// Constant is a compile-time initializer as recorded in the class file.
type Constant struct {
	Desc  string `msgpack:"desc"`
	Value any    `msgpack:"value"`
}

// Constructor of a class. The first one is primary.
type Constructor struct {
	Visibility      Visibility       `msgpack:"vis,omitempty"`
	ValueParameters []ValueParameter `msgpack:"params,omitempty"`
	Annotations     []Annotation     `msgpack:"annotations,omitempty"`
}

// ValueParameter of a function or constructor.
type ValueParameter struct {
	Name            int          `msgpack:"name"`
	Type            Type         `msgpack:"type"`
	VarargElement   *Type        `msgpack:"vararg,omitempty"`
	DeclaresDefault bool         `msgpack:"default,omitempty"`
	Annotations     []Annotation `msgpack:"annotations,omitempty"`
}

// Annotation is an annotation usage with its arguments.
type Annotation struct {
	ClassName int                  `msgpack:"c"` // qualified-name index
	Arguments []AnnotationArgument `msgpack:"args,omitempty"`
}

// AnnotationArgument is a named argument of an annotation.
type AnnotationArgument struct {
	Name  int             `msgpack:"name"`
	Value AnnotationValue `msgpack:"value"`
}

// ValueKind enumerates annotation argument value shapes.
type ValueKind uint8

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueString
	ValueBool
	ValueEnum
	ValueClass
	ValueArray
	ValueAnnotation
)

// AnnotationValue is a tagged union over ValueKind.
type AnnotationValue struct {
	Kind       ValueKind         `msgpack:"k"`
	Int        int64             `msgpack:"i,omitempty"`
	Float      float64           `msgpack:"f,omitempty"`
	String     string            `msgpack:"s,omitempty"`
	Bool       bool              `msgpack:"b,omitempty"`
	ClassName  int               `msgpack:"c,omitempty"` // enum class or class literal
	EnumEntry  int               `msgpack:"e,omitempty"`
	Elements   []AnnotationValue `msgpack:"elems,omitempty"`
	Annotation *Annotation       `msgpack:"ann,omitempty"`
}
