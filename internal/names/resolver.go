package names

// NameResolver is the string-table indirection used by serialized metadata.
// Indices are only meaningful for the table they were written against.
type NameResolver interface {
	Name(index int) Name
	QualifiedClassName(index int) FqName
	ClassID(index int) ClassID
}
