package framing

import "testing"

func TestMatchersStopSearchingAfterAllMismatch(t *testing.T) {
	ms := newMatchers([][]byte{[]byte("AB"), []byte("AC")})
	if ms.feed('A') {
		t.Fatalf("unexpected match on first byte")
	}
	if !ms.searching {
		t.Fatalf("both matchers still viable")
	}
	if ms.feed('D') {
		t.Fatalf("unexpected match")
	}
	if ms.searching {
		t.Fatalf("expected searching to stop")
	}
	// 'B' would have completed "AB" had the search continued.
	if ms.feed('B') {
		t.Fatalf("inactive matchers must not complete")
	}
	ms.reset()
	ms.feed('A')
	if !ms.feed('C') {
		t.Fatalf("expected AC after reset")
	}
}

func TestMatchersShorterPrefixWins(t *testing.T) {
	ms := newMatchers([][]byte{[]byte(">>"), []byte(">")})
	if !ms.feed('>') {
		t.Fatalf("expected '>' to complete")
	}
}

func TestMatchersEmptySetNeverSearches(t *testing.T) {
	ms := newMatchers(nil)
	if ms.searching || ms.feed('x') {
		t.Fatalf("empty matcher set must not search")
	}
}

func TestBoundaryString(t *testing.T) {
	for b, want := range map[Boundary]string{
		None:        "none",
		Terminator:  "terminator",
		Sequence:    "sequence",
		Overflow:    "overflow",
		Boundary(9): "unknown",
	} {
		if b.String() != want {
			t.Fatalf("%d: got %q want %q", b, b.String(), want)
		}
	}
}
