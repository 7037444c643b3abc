package normalize

import (
	"strings"
	"testing"

	"github.com/tavern-tools/loresync/internal/book"
)

func TestCanonicalDropsUID(t *testing.T) {
	a := book.DefaultEntry()
	a.UID = 1
	a.Comment = "same"
	b := a
	b.UID = 99

	equal, err := Equal(a, b, DefaultPolicy())
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if !equal {
		t.Error("entries differing only in uid should normalize equal")
	}
}

func TestCanonicalDropsNulls(t *testing.T) {
	e := book.DefaultEntry()
	canon, err := Canonical(e, DefaultPolicy())
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}
	if strings.Contains(canon, "scanDepth") {
		t.Errorf("null scanDepth leaked into canonical form:\n%s", canon)
	}
	if strings.Contains(canon, "null") {
		t.Errorf("null value leaked into canonical form:\n%s", canon)
	}
}

func TestZeroMeansUnsetHeuristic(t *testing.T) {
	zero := 0
	withZero := book.DefaultEntry()
	withZero.Comment = "x"
	withZero.Sticky = &zero
	withZero.Role = &zero

	without := book.DefaultEntry()
	without.Comment = "x"

	equal, err := Equal(withZero, without, Policy{ZeroMeansUnset: true})
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if !equal {
		t.Error("zero-valued sticky/role should compare as unset under the heuristic")
	}

	equal, err = Equal(withZero, without, Policy{ZeroMeansUnset: false})
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if equal {
		t.Error("with the heuristic disabled, explicit zero must differ from absent")
	}
}

func TestCanonicalIsDeterministicAndSorted(t *testing.T) {
	e := book.DefaultEntry()
	e.Comment = "det"
	e.Content = "body"

	first, err := Canonical(e, DefaultPolicy())
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}
	second, err := Canonical(e, DefaultPolicy())
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}
	if first != second {
		t.Error("canonical form is not deterministic")
	}

	// Field names appear in lexicographic order.
	commentAt := strings.Index(first, `"comment"`)
	contentAt := strings.Index(first, `"content"`)
	orderAt := strings.Index(first, `"order"`)
	if commentAt == -1 || contentAt == -1 || orderAt == -1 {
		t.Fatalf("expected fields missing from canonical form:\n%s", first)
	}
	if !(commentAt < contentAt && contentAt < orderAt) {
		t.Errorf("fields are not lexicographically ordered:\n%s", first)
	}
}

func TestContentChangeChangesCanonical(t *testing.T) {
	a := book.DefaultEntry()
	a.Comment = "rule"
	a.Content = "Hello"
	b := a
	b.Content = "Hello!"

	equal, err := Equal(a, b, DefaultPolicy())
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if equal {
		t.Error("content change must change the canonical form")
	}
}
