package stubs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"kstub/internal/names"
)

const indentUnit = "    "

// Render writes the file as decompiled declaration text.
func Render(w io.Writer, f *File) error {
	var b strings.Builder
	if !f.Package.IsRoot() {
		fmt.Fprintf(&b, "package %s\n\n", f.Package)
	}
	for i, c := range f.Root.Children {
		if i > 0 {
			b.WriteByte('\n')
		}
		renderDecl(&b, c, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDecl writes a single declaration and its members.
func RenderDecl(w io.Writer, s *Stub) error {
	var b strings.Builder
	renderDecl(&b, s, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func renderDecl(b *strings.Builder, s *Stub, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	for _, ann := range s.ChildrenOf(KindAnnotationEntry) {
		fmt.Fprintf(b, "%s@%s\n", indent, ann.Text)
	}
	b.WriteString(indent)
	switch s.Kind {
	case KindClass, KindObject:
		renderClassHeader(b, s)
		body := classBody(s)
		if len(body) == 0 {
			b.WriteByte('\n')
			return
		}
		b.WriteString(" {\n")
		for _, c := range body {
			renderDecl(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case KindEnumEntry:
		fmt.Fprintf(b, "%s,\n", s.Name)
	case KindFunction:
		writeModifiers(b, s)
		b.WriteString("fun ")
		writeTypeParams(b, s)
		writeReceiver(b, s)
		fmt.Fprintf(b, "%s(", s.Name)
		writeParams(b, s)
		b.WriteString(")")
		if ret := s.TypeRef(RoleReturn); ret != nil {
			fmt.Fprintf(b, ": %s", ret.Text)
		}
		b.WriteString(" { /* compiled code */ }\n")
	case KindProperty:
		writeModifiers(b, s)
		if s.HasModifier("var") {
			b.WriteString("var ")
		} else {
			b.WriteString("val ")
		}
		writeTypeParams(b, s)
		writeReceiver(b, s)
		b.WriteString(string(s.Name))
		if ret := s.TypeRef(RoleReturn); ret != nil {
			fmt.Fprintf(b, ": %s", ret.Text)
		}
		b.WriteString(" /* compiled code */\n")
	case KindConstructor:
		writeModifiers(b, s)
		b.WriteString("constructor(")
		writeParams(b, s)
		b.WriteString(")\n")
	default:
		fmt.Fprintf(b, "/* %s */\n", s.Kind)
	}
}

func renderClassHeader(b *strings.Builder, s *Stub) {
	writeModifiers(b, s)
	b.WriteString(s.Text)
	if !names.IsClassObjectName(s.Name) {
		b.WriteByte(' ')
		b.WriteString(string(s.Name))
	}
	if tps := s.ChildrenOf(KindTypeParameter); len(tps) > 0 {
		b.WriteByte('<')
		writeTypeParamList(b, tps)
		b.WriteByte('>')
	}
	if supers := s.ChildrenOf(KindSupertype); len(supers) > 0 {
		parts := make([]string, len(supers))
		for i, st := range supers {
			parts[i] = st.Text
		}
		fmt.Fprintf(b, " : %s", strings.Join(parts, ", "))
	}
}

func classBody(s *Stub) []*Stub {
	var out []*Stub
	for _, c := range s.Children {
		switch c.Kind {
		case KindEnumEntry, KindConstructor, KindFunction, KindProperty, KindClass, KindObject:
			out = append(out, c)
		}
	}
	return out
}

func writeModifiers(b *strings.Builder, s *Stub) {
	for _, m := range s.Modifiers {
		if m == "var" {
			continue
		}
		b.WriteString(m)
		b.WriteByte(' ')
	}
}

func writeTypeParams(b *strings.Builder, s *Stub) {
	tps := s.ChildrenOf(KindTypeParameter)
	if len(tps) == 0 {
		return
	}
	b.WriteByte('<')
	writeTypeParamList(b, tps)
	b.WriteString("> ")
}

func writeTypeParamList(b *strings.Builder, tps []*Stub) {
	for i, tp := range tps {
		if i > 0 {
			b.WriteString(", ")
		}
		for _, m := range tp.Modifiers {
			b.WriteString(m)
			b.WriteByte(' ')
		}
		b.WriteString(string(tp.Name))
		if bound := tp.TypeRef(RoleBound); bound != nil {
			fmt.Fprintf(b, " : %s", bound.Text)
		}
	}
}

func writeReceiver(b *strings.Builder, s *Stub) {
	if recv := s.TypeRef(RoleReceiver); recv != nil {
		fmt.Fprintf(b, "%s.", recv.Text)
	}
}

func writeParams(b *strings.Builder, s *Stub) {
	for i, p := range s.ChildrenOf(KindParameter) {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.HasModifier("vararg") {
			b.WriteString("vararg ")
		}
		fmt.Fprintf(b, "%s: ", p.Name)
		if t := p.TypeRef(RoleNone); t != nil {
			b.WriteString(t.Text)
		}
		if p.HasModifier("default") {
			b.WriteString(" = ...")
		}
	}
}

type jsonStub struct {
	Kind      string      `json:"kind"`
	Name      string      `json:"name,omitempty"`
	FqName    string      `json:"fq_name,omitempty"`
	Modifiers []string    `json:"modifiers,omitempty"`
	Text      string      `json:"text,omitempty"`
	Children  []*jsonStub `json:"children,omitempty"`
}

func toJSON(s *Stub) *jsonStub {
	js := &jsonStub{
		Kind:      s.Kind.String(),
		Name:      string(s.Name),
		FqName:    string(s.FqName),
		Modifiers: s.Modifiers,
		Text:      s.Text,
	}
	for _, c := range s.Children {
		js.Children = append(js.Children, toJSON(c))
	}
	return js
}

// WriteJSON dumps the tree as indented JSON.
func WriteJSON(w io.Writer, f *File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Key     string    `json:"key"`
		Package string    `json:"package"`
		Root    *jsonStub `json:"root"`
	}{f.Key.String(), string(f.Package), toJSON(f.Root)})
}
