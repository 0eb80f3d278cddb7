package identity

import "testing"

func TestResolveUsesNativeIDVerbatim(t *testing.T) {
	got := Resolve("gh-12345", "https://example.com/jobs/1", "Backend Engineer")
	if got != "gh-12345" {
		t.Errorf("Resolve = %q, want native id verbatim", got)
	}
}

func TestResolveDeterministicFallback(t *testing.T) {
	a := Resolve("", "https://example.com/jobs/1", "Backend Engineer")
	b := Resolve("", "https://example.com/jobs/1", "Backend Engineer")
	if a == "" {
		t.Fatal("Resolve returned empty identity")
	}
	if a != b {
		t.Errorf("same (url, title) resolved to %q and %q", a, b)
	}
}

func TestResolveDistinguishesInputs(t *testing.T) {
	a := Resolve("", "https://example.com/jobs/1", "Backend Engineer")
	b := Resolve("", "https://example.com/jobs/2", "Backend Engineer")
	if a == b {
		t.Error("different urls resolved to the same identity")
	}
}

func TestResolveEmptyInputsStillProduceIdentity(t *testing.T) {
	// Degenerate records aren't an error; they must still hash deterministically.
	a := Resolve("", "", "")
	b := Resolve("", "", "")
	if a == "" || a != b {
		t.Errorf("degenerate inputs: got %q then %q", a, b)
	}
}

func TestResolveTrimsWhitespaceID(t *testing.T) {
	if got := Resolve("   ", "https://example.com/x", "T"); len(got) != 40 {
		t.Errorf("whitespace-only id should fall back to sha1 hex, got %q", got)
	}
}
