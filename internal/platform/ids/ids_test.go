package ids

import "testing"

func TestNewIsSortableAndUnique(t *testing.T) {
	prev := New()
	seen := map[string]bool{prev: true}
	for i := 0; i < 1000; i++ {
		next := New()
		if len(next) != 26 {
			t.Fatalf("expected 26 char ulid, got %q", next)
		}
		if next <= prev {
			t.Fatalf("expected monotonic ids, %q after %q", next, prev)
		}
		if seen[next] {
			t.Fatalf("duplicate id %q", next)
		}
		seen[next] = true
		prev = next
	}
}

func TestValid(t *testing.T) {
	if !Valid(New()) {
		t.Fatal("expected generated id to be valid")
	}
	for _, bad := range []string{"", "not-an-id", "../../etc/passwd", New() + "x"} {
		if Valid(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}
