package types

import (
	"strings"

	"kstub/internal/names"
)

// LabelOptions controls how class names are printed.
type LabelOptions struct {
	ShortNames bool
}

// Label returns a Kotlin-like rendering of a TypeID with fully qualified names.
func Label(in *Interner, id TypeID) string {
	return LabelWith(in, id, LabelOptions{})
}

// LabelWith renders id with the given options.
func LabelWith(in *Interner, id TypeID, opts LabelOptions) string {
	var b strings.Builder
	writeLabel(&b, in, id, opts, 0)
	return b.String()
}

func writeLabel(b *strings.Builder, in *Interner, id TypeID, opts LabelOptions, depth int) {
	if id == NoTypeID || in == nil {
		b.WriteString("?")
		return
	}
	if depth > 16 {
		b.WriteString("...")
		return
	}
	tt, ok := in.Lookup(id)
	if !ok {
		b.WriteString("?")
		return
	}
	switch tt.Kind {
	case KindDynamic:
		b.WriteString("dynamic")
	case KindTypeParam:
		b.WriteString(string(tt.Param))
		if tt.Nullable {
			b.WriteByte('?')
		}
	case KindClass:
		b.WriteString(className(tt.Class, opts))
		writeArgs(b, in, tt.Args, opts, depth)
		if tt.Nullable {
			b.WriteByte('?')
		}
	case KindFlexible:
		writeFlexible(b, in, &tt, opts, depth)
	default:
		b.WriteString("?")
	}
}

func writeArgs(b *strings.Builder, in *Interner, args []Arg, opts LabelOptions, depth int) {
	if len(args) == 0 {
		return
	}
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch a.Projection {
		case ProjStar:
			b.WriteByte('*')
			continue
		case ProjIn:
			b.WriteString("in ")
		case ProjOut:
			b.WriteString("out ")
		}
		writeLabel(b, in, a.Type, opts, depth+1)
	}
	b.WriteByte('>')
}

// writeFlexible prints Foo! when the bounds differ only in nullability,
// (Mutable)List<T>! for a mutable/read-only collection pair, and
// (lower..upper) otherwise.
func writeFlexible(b *strings.Builder, in *Interner, t *Type, opts LabelOptions, depth int) {
	lower, lok := in.Lookup(t.Lower)
	upper, uok := in.Lookup(t.Upper)
	if lok && uok && lower.Kind == upper.Kind && sameArgs(lower.Args, upper.Args) {
		if lower.Kind == KindClass && lower.Class == upper.Class {
			b.WriteString(className(lower.Class, opts))
			writeArgs(b, in, lower.Args, opts, depth)
			b.WriteByte('!')
			return
		}
		if lower.Kind == KindClass && isMutablePrefixPair(lower.Class, upper.Class) {
			ro := className(upper.Class, opts)
			pkg, short := splitLast(ro)
			b.WriteString(pkg)
			b.WriteString("(Mutable)")
			b.WriteString(short)
			writeArgs(b, in, lower.Args, opts, depth)
			b.WriteByte('!')
			return
		}
		if lower.Kind == KindTypeParam && lower.Param == upper.Param {
			b.WriteString(string(lower.Param))
			b.WriteByte('!')
			return
		}
	}
	b.WriteByte('(')
	writeLabel(b, in, t.Lower, opts, depth+1)
	b.WriteString("..")
	writeLabel(b, in, t.Upper, opts, depth+1)
	b.WriteByte(')')
}

func sameArgs(a, b []Arg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isMutablePrefixPair(mutable, readOnly names.ClassID) bool {
	return mutable.Package == readOnly.Package &&
		mutable.Relative.Parent() == readOnly.Relative.Parent() &&
		string(mutable.ShortClassName()) == "Mutable"+string(readOnly.ShortClassName())
}

func className(id names.ClassID, opts LabelOptions) string {
	if opts.ShortNames {
		return string(id.Relative)
	}
	return string(id.FqName())
}

func splitLast(fq string) (prefix, short string) {
	i := strings.LastIndexByte(fq, '.')
	if i < 0 {
		return "", fq
	}
	return fq[:i+1], fq[i+1:]
}
