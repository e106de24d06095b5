package names

import "testing"

func TestFqNameChildAndParent(t *testing.T) {
	fq := RootFqName.Child("a").Child("b").Child("C")
	if fq != "a.b.C" {
		t.Fatalf("unexpected fq name %q", fq)
	}
	if fq.Parent() != "a.b" || fq.ShortName() != "C" {
		t.Fatalf("parent/short mismatch: %q %q", fq.Parent(), fq.ShortName())
	}
	if FqName("a").Parent() != RootFqName {
		t.Fatalf("parent of a single segment must be root")
	}
	if !fq.StartsWith("a.b") || fq.StartsWith("a.bc") || !fq.StartsWith(RootFqName) {
		t.Fatalf("StartsWith mismatch")
	}
}

func TestClassObjectName(t *testing.T) {
	n := ClassObjectName("Foo")
	if !IsClassObjectName(n) {
		t.Fatalf("%q should be a class-object name", n)
	}
	if IsClassObjectName("Foo") || IsClassObjectName("<no name>") {
		t.Fatalf("regular and unrelated special names must not match")
	}
}

func TestClassIDRoundTrip(t *testing.T) {
	tests := []struct {
		id   ClassID
		text string
		fq   FqName
	}{
		{ClassID{Package: "a.b", Relative: "Outer.Inner"}, "a/b/Outer.Inner", "a.b.Outer.Inner"},
		{ClassID{Relative: "Top"}, "/Top", "Top"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.text {
			t.Errorf("String() = %q, want %q", got, tt.text)
		}
		if got := ParseClassID(tt.text); got != tt.id {
			t.Errorf("ParseClassID(%q) = %+v", tt.text, got)
		}
		if got := tt.id.FqName(); got != tt.fq {
			t.Errorf("FqName() = %q, want %q", got, tt.fq)
		}
	}
}

func TestClassIDNesting(t *testing.T) {
	outer := NewClassID("p", "A")
	inner := outer.Nested("B").Nested("C")
	if !inner.IsNested() || outer.IsNested() {
		t.Fatalf("nesting flags wrong")
	}
	parent, ok := inner.Outer()
	if !ok || parent.Relative != "A.B" {
		t.Fatalf("Outer() = %+v, %v", parent, ok)
	}
	if inner.Outermost() != outer {
		t.Fatalf("Outermost() = %+v", inner.Outermost())
	}
	if _, ok := outer.Outer(); ok {
		t.Fatalf("top-level class has no outer")
	}
}

func TestStringTableNormalizes(t *testing.T) {
	tab := NewStringTable()
	composed := tab.Intern("caf\u00e9")
	decomposed := tab.Intern("cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC-equivalent names must share an id: %d vs %d", composed, decomposed)
	}
	if tab.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tab.Len())
	}
	if s := tab.MustLookup(composed); s != "caf\u00e9" {
		t.Fatalf("lookup = %q", s)
	}
	if _, ok := tab.Lookup(99); ok {
		t.Fatalf("unknown id must miss")
	}
}
