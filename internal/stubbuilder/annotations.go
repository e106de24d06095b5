package stubbuilder

import (
	"kstub/internal/metadata"
	"kstub/internal/names"
)

// AnnotationLoader collects the classes of annotations applied to
// declarations. Arguments and constant values are never needed for stubs.
type AnnotationLoader struct {
	classFinder metadata.KotlinClassFinder
}

// NewAnnotationLoader creates a loader reading class files through finder.
func NewAnnotationLoader(finder metadata.KotlinClassFinder) *AnnotationLoader {
	return &AnnotationLoader{classFinder: finder}
}

// LoadConstant always returns nil: initializers are not part of stubs.
func (l *AnnotationLoader) LoadConstant(desc string, initializer any) any {
	return nil
}

// LoadAnnotation records classID and declines to visit the arguments.
func (l *AnnotationLoader) LoadAnnotation(classID names.ClassID, result *[]names.ClassID) metadata.AnnotationArgumentVisitor {
	*result = append(*result, classID)
	return nil
}

// LoadClassAnnotations returns the annotations of the compiled class id.
// A class that cannot be found has none.
func (l *AnnotationLoader) LoadClassAnnotations(id names.ClassID) []names.ClassID {
	if l.classFinder == nil {
		return nil
	}
	c, ok := l.classFinder.FindKotlinClass(id)
	if !ok {
		return nil
	}
	var result []names.ClassID
	c.LoadClassAnnotations(&collector{loader: l, result: &result})
	return result
}

// LoadAnnotations returns the annotations of a member recorded in metadata.
func (l *AnnotationLoader) LoadAnnotations(r names.NameResolver, anns []metadata.Annotation) []names.ClassID {
	if len(anns) == 0 {
		return nil
	}
	var result []names.ClassID
	metadata.VisitAnnotations(r, anns, &collector{loader: l, result: &result})
	return result
}

type collector struct {
	loader *AnnotationLoader
	result *[]names.ClassID
}

func (c *collector) VisitAnnotation(classID names.ClassID) metadata.AnnotationArgumentVisitor {
	if isSpecialAnnotation(classID) {
		return nil
	}
	return c.loader.LoadAnnotation(classID, c.result)
}

// Compiler-emitted bookkeeping annotations are not user annotations.
var specialAnnotationPackages = []names.FqName{"kotlin.jvm.internal", "kotlin.jvm.internal.impl", "jet.runtime.typeinfo"}

func isSpecialAnnotation(id names.ClassID) bool {
	for _, pkg := range specialAnnotationPackages {
		if id.Package == pkg {
			return true
		}
	}
	return false
}
