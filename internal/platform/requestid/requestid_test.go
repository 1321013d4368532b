package requestid

import (
	"strings"
	"testing"
)

func TestNewIsUniqueAndWellFormed(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if len(a) != 24 {
		t.Fatalf("len(id)=%d, want 24", len(a))
	}
	if a != strings.ToLower(a) {
		t.Fatalf("id %q is not lowercase", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
