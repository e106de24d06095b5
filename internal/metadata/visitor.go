package metadata

import "kstub/internal/names"

// AnnotationVisitor receives the annotations of a declaration. Returning nil
// from VisitAnnotation skips the arguments of that annotation.
type AnnotationVisitor interface {
	VisitAnnotation(classID names.ClassID) AnnotationArgumentVisitor
}

// AnnotationArgumentVisitor receives the arguments of one annotation.
type AnnotationArgumentVisitor interface {
	// Visit delivers a literal: int64, float64, string, bool, names.ClassID
	// for class literals, or []any for arrays.
	Visit(name names.Name, value any)
	VisitEnum(name names.Name, enumClass names.ClassID, entry names.Name)
	VisitAnnotation(name names.Name, classID names.ClassID) AnnotationArgumentVisitor
	End()
}

// VisitAnnotations replays serialized annotations into v.
func VisitAnnotations(r names.NameResolver, anns []Annotation, v AnnotationVisitor) {
	for i := range anns {
		visitAnnotation(r, &anns[i], v.VisitAnnotation(r.ClassID(anns[i].ClassName)))
	}
}

func visitAnnotation(r names.NameResolver, ann *Annotation, av AnnotationArgumentVisitor) {
	if av == nil {
		return
	}
	for _, arg := range ann.Arguments {
		visitValue(r, r.Name(arg.Name), arg.Value, av)
	}
	av.End()
}

func visitValue(r names.NameResolver, name names.Name, val AnnotationValue, av AnnotationArgumentVisitor) {
	switch val.Kind {
	case ValueEnum:
		av.VisitEnum(name, r.ClassID(val.ClassName), r.Name(val.EnumEntry))
	case ValueAnnotation:
		if val.Annotation == nil {
			return
		}
		visitAnnotation(r, val.Annotation, av.VisitAnnotation(name, r.ClassID(val.Annotation.ClassName)))
	default:
		av.Visit(name, literal(r, val))
	}
}

func literal(r names.NameResolver, val AnnotationValue) any {
	switch val.Kind {
	case ValueInt:
		return val.Int
	case ValueFloat:
		return val.Float
	case ValueString:
		return val.String
	case ValueBool:
		return val.Bool
	case ValueClass:
		return r.ClassID(val.ClassName)
	case ValueArray:
		out := make([]any, 0, len(val.Elements))
		for _, el := range val.Elements {
			if el.Kind == ValueEnum {
				out = append(out, r.ClassID(el.ClassName).Nested(r.Name(el.EnumEntry)))
				continue
			}
			out = append(out, literal(r, el))
		}
		return out
	default:
		return nil
	}
}
