package subdivision

import "testing"

func TestLookup(t *testing.T) {
	cases := []struct {
		in        string
		canonical string
		first     string
		n         int
	}{
		{"Punjab", "Punjab", "Punjab", 1},
		{"  maharashtra ", "Maharashtra", "Konkan & Goa", 4},
		{"JAMMU & KASHMIR", "Jammu And Kashmir", "Jammu & Kashmir", 1},
		{"Orissa", "Odisha", "Orissa", 1},
	}
	for _, c := range cases {
		canonical, subs, ok := Lookup(c.in)
		if !ok {
			t.Fatalf("Lookup(%q) not found", c.in)
		}
		if canonical != c.canonical || len(subs) != c.n || subs[0] != c.first {
			t.Errorf("Lookup(%q) = %q %v", c.in, canonical, subs)
		}
	}
	if _, _, ok := Lookup("Atlantis"); ok {
		t.Fatal("unexpected match")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	_, subs, _ := Lookup("Punjab")
	subs[0] = "changed"
	_, again, _ := Lookup("Punjab")
	if again[0] != "Punjab" {
		t.Fatal("Lookup must not expose the table")
	}
}

func TestStatesSorted(t *testing.T) {
	s := States()
	if len(s) != len(table) {
		t.Fatalf("got %d states", len(s))
	}
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			t.Fatalf("not sorted at %d: %q > %q", i, s[i-1], s[i])
		}
	}
}
