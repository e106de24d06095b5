package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsComponents(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	if got := Colored(); got != Version {
		t.Fatalf("Colored() = %q, want %q", got, Version)
	}

	orig := Version
	defer func() { Version = orig }()
	Version = "weird"
	if got := Colored(); got != "weird" {
		t.Fatalf("non-semver should pass through, got %q", got)
	}
}

func TestFingerprint(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit, BuildDate = "", ""
	if got := Fingerprint(3); got != "kstub "+Version+" (schema 3)" {
		t.Fatalf("Fingerprint = %q", got)
	}
	GitCommit, BuildDate = "abc123", "2024-01-15"
	got := Fingerprint(3)
	if !strings.HasSuffix(got, " abc123 built 2024-01-15") {
		t.Fatalf("Fingerprint = %q", got)
	}
}
