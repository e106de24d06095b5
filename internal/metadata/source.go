package metadata

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"kstub/internal/names"
)

// UnitSource is a human-writable description of a unit. Names are spelled out
// instead of indexed; Assemble interns them into the serialized tables.
// Class references use the "pkg/path/Outer.Inner" form; a reference without
// '/' is taken as a top-level class.
type UnitSource struct {
	Package     string             `yaml:"package"`
	Class       *ClassSource       `yaml:"class,omitempty"`
	Functions   []FunctionSource   `yaml:"functions,omitempty"`
	Properties  []PropertySource   `yaml:"properties,omitempty"`
	Annotations []AnnotationSource `yaml:"annotations,omitempty"`
}

type ClassSource struct {
	Name           string                `yaml:"name"` // relative: Outer.Inner
	Kind           string                `yaml:"kind,omitempty"`
	Modality       string                `yaml:"modality,omitempty"`
	Visibility     string                `yaml:"visibility,omitempty"`
	Inner          bool                  `yaml:"inner,omitempty"`
	Local          bool                  `yaml:"local,omitempty"`
	OuterParams    map[string]int        `yaml:"outer_type_parameters,omitempty"`
	TypeParameters []TypeParameterSource `yaml:"type_parameters,omitempty"`
	Supertypes     []TypeSource          `yaml:"supertypes,omitempty"`
	Constructors   []ConstructorSource   `yaml:"constructors,omitempty"`
	Functions      []FunctionSource      `yaml:"functions,omitempty"`
	Properties     []PropertySource      `yaml:"properties,omitempty"`
	Nested         []string              `yaml:"nested,omitempty"`
	EnumEntries    []string              `yaml:"enum_entries,omitempty"`
	ClassObject    bool                  `yaml:"class_object,omitempty"`
}

type TypeParameterSource struct {
	Name     string       `yaml:"name"`
	ID       *int         `yaml:"id,omitempty"`
	Variance string       `yaml:"variance,omitempty"`
	Reified  bool         `yaml:"reified,omitempty"`
	Bounds   []TypeSource `yaml:"bounds,omitempty"`
}

type TypeSource struct {
	Class       string           `yaml:"class,omitempty"`
	Param       string           `yaml:"param,omitempty"`
	Dynamic     bool             `yaml:"dynamic,omitempty"`
	Nullable    bool             `yaml:"nullable,omitempty"`
	Args        []ArgumentSource `yaml:"args,omitempty"`
	Upper       *TypeSource      `yaml:"upper,omitempty"`
	Annotations []string         `yaml:"annotations,omitempty"`
}

type ArgumentSource struct {
	Projection string `yaml:"projection,omitempty"` // in, out or *
	TypeSource `yaml:",inline"`
}

type FunctionSource struct {
	Name           string                `yaml:"name"`
	Visibility     string                `yaml:"visibility,omitempty"`
	Modality       string                `yaml:"modality,omitempty"`
	Inline         bool                  `yaml:"inline,omitempty"`
	TypeParameters []TypeParameterSource `yaml:"type_parameters,omitempty"`
	Receiver       *TypeSource           `yaml:"receiver,omitempty"`
	Params         []ParamSource         `yaml:"params,omitempty"`
	Returns        TypeSource            `yaml:"returns"`
	Annotations    []AnnotationSource    `yaml:"annotations,omitempty"`
}

type PropertySource struct {
	Name           string                `yaml:"name"`
	Visibility     string                `yaml:"visibility,omitempty"`
	Modality       string                `yaml:"modality,omitempty"`
	Var            bool                  `yaml:"var,omitempty"`
	TypeParameters []TypeParameterSource `yaml:"type_parameters,omitempty"`
	Receiver       *TypeSource           `yaml:"receiver,omitempty"`
	Type           TypeSource            `yaml:"type"`
	Annotations    []AnnotationSource    `yaml:"annotations,omitempty"`
	Const          *ConstSource          `yaml:"const,omitempty"`
}

type ConstSource struct {
	Desc  string `yaml:"desc"`
	Value any    `yaml:"value"`
}

type ConstructorSource struct {
	Visibility  string             `yaml:"visibility,omitempty"`
	Params      []ParamSource      `yaml:"params,omitempty"`
	Annotations []AnnotationSource `yaml:"annotations,omitempty"`
}

type ParamSource struct {
	Name        string             `yaml:"name"`
	Type        TypeSource         `yaml:"type"`
	Vararg      bool               `yaml:"vararg,omitempty"`
	Default     bool               `yaml:"default,omitempty"`
	Annotations []AnnotationSource `yaml:"annotations,omitempty"`
}

type AnnotationSource struct {
	Class string                `yaml:"class"`
	Args  []AnnotationArgSource `yaml:"args,omitempty"`
}

type AnnotationArgSource struct {
	Name string `yaml:"name"`
	// Enum is "pkg/Enum.ENTRY"; when set Value is ignored.
	Enum  string `yaml:"enum,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assemble interns src into a serializable unit.
func Assemble(src *UnitSource) (*Unit, error) {
	a := &assembler{
		strings: names.NewStringTable(),
		qindex:  make(map[QualifiedName]int),
	}
	pkg := names.ParseFqName(src.Package)
	u := &Unit{
		Schema:      SchemaVersion,
		PackageName: a.pkg(pkg),
	}
	var err error
	if u.Annotations, err = a.annotations(src.Annotations); err != nil {
		return nil, err
	}
	if src.Class != nil {
		u.Kind = UnitClass
		if u.Class, err = a.class(pkg, src.Class); err != nil {
			return nil, fmt.Errorf("class %s: %w", src.Class.Name, err)
		}
	} else {
		u.Kind = UnitPackage
		u.Package = &Package{}
		if u.Package.Functions, err = a.functions(src.Functions); err != nil {
			return nil, err
		}
		if u.Package.Properties, err = a.properties(src.Properties); err != nil {
			return nil, err
		}
	}
	u.Strings = a.strings.Snapshot()
	u.QualifiedNames = a.qnames
	return u, nil
}

type assembler struct {
	strings *names.StringTable
	qnames  []QualifiedName
	qindex  map[QualifiedName]int
	nextID  int
	scopes  []map[string]int
}

func (a *assembler) str(s string) int { return a.strings.Index(s) }

func (a *assembler) qname(parent int, short string, kind QualifiedNameKind) int {
	q := QualifiedName{Parent: parent, ShortName: a.str(short), Kind: kind}
	if i, ok := a.qindex[q]; ok {
		return i
	}
	a.qnames = append(a.qnames, q)
	i := len(a.qnames) - 1
	a.qindex[q] = i
	return i
}

func (a *assembler) pkg(fq names.FqName) int {
	parent := -1
	for _, seg := range fq.Segments() {
		parent = a.qname(parent, string(seg), QualifiedPackage)
	}
	return parent
}

func (a *assembler) classID(id names.ClassID) int {
	parent := a.pkg(id.Package)
	kind := QualifiedClass
	if id.Local {
		kind = QualifiedLocal
	}
	for _, seg := range id.Relative.Segments() {
		parent = a.qname(parent, string(seg), kind)
	}
	return parent
}

func (a *assembler) classRef(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty class reference")
	}
	if strings.Contains(s, "/") {
		return a.classID(names.ParseClassID(s)), nil
	}
	return a.classID(names.TopLevelClassID(names.FqName(s))), nil
}

func (a *assembler) push(outer map[string]int) { a.scopes = append(a.scopes, outer) }
func (a *assembler) pop()                      { a.scopes = a.scopes[:len(a.scopes)-1] }

func (a *assembler) lookupParam(name string) (int, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if id, ok := a.scopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

// typeParameters declares params in a fresh scope; the caller pops it.
func (a *assembler) typeParameters(src []TypeParameterSource) ([]TypeParameter, error) {
	scope := make(map[string]int, len(src))
	a.push(scope)
	out := make([]TypeParameter, len(src))
	for i, p := range src {
		id := a.nextID
		if p.ID != nil {
			id = *p.ID
		}
		if id >= a.nextID {
			a.nextID = id + 1
		}
		scope[p.Name] = id
		v, err := parseVariance(p.Variance)
		if err != nil {
			return nil, err
		}
		out[i] = TypeParameter{ID: id, Name: a.str(p.Name), Reified: p.Reified, Variance: v}
	}
	// Bounds may mention any parameter of the same list.
	for i, p := range src {
		bounds, err := a.types(p.Bounds)
		if err != nil {
			return nil, fmt.Errorf("type parameter %s: %w", p.Name, err)
		}
		out[i].UpperBounds = bounds
	}
	return out, nil
}

func (a *assembler) typ(src *TypeSource) (Type, error) {
	var t Type
	switch {
	case src.Dynamic:
		t.Kind = TypeDynamic
	case src.Param != "":
		id, ok := a.lookupParam(src.Param)
		if !ok {
			return Type{}, fmt.Errorf("unknown type parameter %q", src.Param)
		}
		t.Kind = TypeParameterRef
		t.TypeParameter = id
	default:
		c, err := a.classRef(src.Class)
		if err != nil {
			return Type{}, err
		}
		t.Kind = TypeClass
		t.ClassName = c
	}
	t.Nullable = src.Nullable
	for _, arg := range src.Args {
		p, err := parseProjection(arg.Projection)
		if err != nil {
			return Type{}, err
		}
		if p == ProjectionStar {
			t.Arguments = append(t.Arguments, Argument{Projection: p})
			continue
		}
		at, err := a.typ(&arg.TypeSource)
		if err != nil {
			return Type{}, err
		}
		t.Arguments = append(t.Arguments, Argument{Projection: p, Type: &at})
	}
	for _, ann := range src.Annotations {
		c, err := a.classRef(ann)
		if err != nil {
			return Type{}, err
		}
		t.Annotations = append(t.Annotations, c)
	}
	if src.Upper != nil {
		up, err := a.typ(src.Upper)
		if err != nil {
			return Type{}, fmt.Errorf("upper bound: %w", err)
		}
		t.FlexibleUpper = &up
	}
	return t, nil
}

func (a *assembler) types(src []TypeSource) ([]Type, error) {
	if len(src) == 0 {
		return nil, nil
	}
	out := make([]Type, len(src))
	for i := range src {
		t, err := a.typ(&src[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (a *assembler) optType(src *TypeSource) (*Type, error) {
	if src == nil {
		return nil, nil
	}
	t, err := a.typ(src)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *assembler) class(pkg names.FqName, src *ClassSource) (*Class, error) {
	id := names.ClassID{Package: pkg, Relative: names.ParseFqName(src.Name), Local: src.Local}
	kind, err := parseClassKind(src.Kind)
	if err != nil {
		return nil, err
	}
	mod, err := parseModality(src.Modality)
	if err != nil {
		return nil, err
	}
	vis, err := parseVisibility(src.Visibility)
	if err != nil {
		return nil, err
	}
	for _, outerID := range src.OuterParams {
		if outerID >= a.nextID {
			a.nextID = outerID + 1
		}
	}
	a.push(src.OuterParams)
	defer a.pop()

	c := &Class{Kind: kind, Modality: mod, Visibility: vis, Inner: src.Inner, FqName: a.classID(id), HasClassObject: src.ClassObject}
	if c.TypeParameters, err = a.typeParameters(src.TypeParameters); err != nil {
		return nil, err
	}
	defer a.pop()
	if c.Supertypes, err = a.types(src.Supertypes); err != nil {
		return nil, fmt.Errorf("supertypes: %w", err)
	}
	for _, ctor := range src.Constructors {
		cv, err := parseVisibility(ctor.Visibility)
		if err != nil {
			return nil, err
		}
		params, err := a.params(ctor.Params)
		if err != nil {
			return nil, fmt.Errorf("constructor: %w", err)
		}
		anns, err := a.annotations(ctor.Annotations)
		if err != nil {
			return nil, err
		}
		c.Constructors = append(c.Constructors, Constructor{Visibility: cv, ValueParameters: params, Annotations: anns})
	}
	if c.Functions, err = a.functions(src.Functions); err != nil {
		return nil, err
	}
	if c.Properties, err = a.properties(src.Properties); err != nil {
		return nil, err
	}
	for _, n := range src.Nested {
		c.NestedNames = append(c.NestedNames, a.str(n))
	}
	for _, e := range src.EnumEntries {
		c.EnumEntries = append(c.EnumEntries, a.str(e))
	}
	return c, nil
}

func (a *assembler) functions(src []FunctionSource) ([]Function, error) {
	var out []Function
	for _, f := range src {
		fn, err := a.function(&f)
		if err != nil {
			return nil, fmt.Errorf("fun %s: %w", f.Name, err)
		}
		out = append(out, fn)
	}
	return out, nil
}

func (a *assembler) function(src *FunctionSource) (Function, error) {
	vis, err := parseVisibility(src.Visibility)
	if err != nil {
		return Function{}, err
	}
	mod, err := parseModality(src.Modality)
	if err != nil {
		return Function{}, err
	}
	fn := Function{Name: a.str(src.Name), Visibility: vis, Modality: mod, Inline: src.Inline}
	if fn.TypeParameters, err = a.typeParameters(src.TypeParameters); err != nil {
		return Function{}, err
	}
	defer a.pop()
	if fn.Receiver, err = a.optType(src.Receiver); err != nil {
		return Function{}, err
	}
	if fn.ValueParameters, err = a.params(src.Params); err != nil {
		return Function{}, err
	}
	if fn.ReturnType, err = a.typ(&src.Returns); err != nil {
		return Function{}, fmt.Errorf("return type: %w", err)
	}
	if fn.Annotations, err = a.annotations(src.Annotations); err != nil {
		return Function{}, err
	}
	return fn, nil
}

func (a *assembler) properties(src []PropertySource) ([]Property, error) {
	var out []Property
	for _, p := range src {
		prop, err := a.property(&p)
		if err != nil {
			return nil, fmt.Errorf("val %s: %w", p.Name, err)
		}
		out = append(out, prop)
	}
	return out, nil
}

func (a *assembler) property(src *PropertySource) (Property, error) {
	vis, err := parseVisibility(src.Visibility)
	if err != nil {
		return Property{}, err
	}
	mod, err := parseModality(src.Modality)
	if err != nil {
		return Property{}, err
	}
	p := Property{Name: a.str(src.Name), Visibility: vis, Modality: mod, Var: src.Var}
	if p.TypeParameters, err = a.typeParameters(src.TypeParameters); err != nil {
		return Property{}, err
	}
	defer a.pop()
	if p.Receiver, err = a.optType(src.Receiver); err != nil {
		return Property{}, err
	}
	if p.ReturnType, err = a.typ(&src.Type); err != nil {
		return Property{}, err
	}
	if p.Annotations, err = a.annotations(src.Annotations); err != nil {
		return Property{}, err
	}
	if src.Const != nil {
		p.Constant = &Constant{Desc: src.Const.Desc, Value: src.Const.Value}
	}
	return p, nil
}

func (a *assembler) params(src []ParamSource) ([]ValueParameter, error) {
	var out []ValueParameter
	for _, p := range src {
		t, err := a.typ(&p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		anns, err := a.annotations(p.Annotations)
		if err != nil {
			return nil, err
		}
		vp := ValueParameter{Name: a.str(p.Name), Type: t, DeclaresDefault: p.Default, Annotations: anns}
		if p.Vararg {
			elem := t
			vp.VarargElement = &elem
		}
		out = append(out, vp)
	}
	return out, nil
}

func (a *assembler) annotations(src []AnnotationSource) ([]Annotation, error) {
	var out []Annotation
	for _, s := range src {
		c, err := a.classRef(s.Class)
		if err != nil {
			return nil, fmt.Errorf("annotation: %w", err)
		}
		ann := Annotation{ClassName: c}
		for _, arg := range s.Args {
			val, err := a.annotationValue(arg)
			if err != nil {
				return nil, fmt.Errorf("annotation %s(%s): %w", s.Class, arg.Name, err)
			}
			ann.Arguments = append(ann.Arguments, AnnotationArgument{Name: a.str(arg.Name), Value: val})
		}
		out = append(out, ann)
	}
	return out, nil
}

func (a *assembler) annotationValue(arg AnnotationArgSource) (AnnotationValue, error) {
	if arg.Enum != "" {
		id := names.ParseClassID(arg.Enum)
		enumClass, ok := id.Outer()
		if !ok {
			return AnnotationValue{}, fmt.Errorf("enum reference %q has no entry", arg.Enum)
		}
		return AnnotationValue{Kind: ValueEnum, ClassName: a.classID(enumClass), EnumEntry: a.str(string(id.ShortClassName()))}, nil
	}
	return a.literalValue(arg.Value)
}

func (a *assembler) literalValue(v any) (AnnotationValue, error) {
	switch x := v.(type) {
	case int:
		return AnnotationValue{Kind: ValueInt, Int: int64(x)}, nil
	case int64:
		return AnnotationValue{Kind: ValueInt, Int: x}, nil
	case uint64:
		n, err := safecast.Conv[int64](x)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValueInt, Int: n}, nil
	case float64:
		return AnnotationValue{Kind: ValueFloat, Float: x}, nil
	case string:
		return AnnotationValue{Kind: ValueString, String: x}, nil
	case bool:
		return AnnotationValue{Kind: ValueBool, Bool: x}, nil
	case []any:
		out := AnnotationValue{Kind: ValueArray}
		for _, el := range x {
			ev, err := a.literalValue(el)
			if err != nil {
				return AnnotationValue{}, err
			}
			out.Elements = append(out.Elements, ev)
		}
		return out, nil
	default:
		return AnnotationValue{}, fmt.Errorf("unsupported annotation value %T", v)
	}
}

func parseClassKind(s string) (ClassKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "class":
		return ClassKindClass, nil
	case "trait", "interface":
		return ClassKindInterface, nil
	case "enum", "enum class":
		return ClassKindEnumClass, nil
	case "enum entry":
		return ClassKindEnumEntry, nil
	case "annotation", "annotation class":
		return ClassKindAnnotationClass, nil
	case "object":
		return ClassKindObject, nil
	case "class object", "companion":
		return ClassKindClassObject, nil
	default:
		return 0, fmt.Errorf("unknown class kind %q", s)
	}
}

func parseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "final":
		return ModalityFinal, nil
	case "open":
		return ModalityOpen, nil
	case "abstract":
		return ModalityAbstract, nil
	default:
		return 0, fmt.Errorf("unknown modality %q", s)
	}
}

func parseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return VisibilityPublic, nil
	case "internal":
		return VisibilityInternal, nil
	case "protected":
		return VisibilityProtected, nil
	case "private":
		return VisibilityPrivate, nil
	default:
		return 0, fmt.Errorf("unknown visibility %q", s)
	}
}

func parseVariance(s string) (Variance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return VarianceInvariant, nil
	case "in":
		return VarianceIn, nil
	case "out":
		return VarianceOut, nil
	default:
		return 0, fmt.Errorf("unknown variance %q", s)
	}
}

func parseProjection(s string) (Projection, error) {
	switch strings.TrimSpace(s) {
	case "":
		return ProjectionInvariant, nil
	case "in":
		return ProjectionIn, nil
	case "out":
		return ProjectionOut, nil
	case "*":
		return ProjectionStar, nil
	default:
		return 0, fmt.Errorf("unknown projection %q", s)
	}
}
