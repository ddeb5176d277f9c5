package env

import "testing"

func TestFirstOfPrefersEarlierKeys(t *testing.T) {
	t.Setenv("EBOOKSHOP_FIRST", "")
	t.Setenv("EBOOKSHOP_SECOND", "8081")
	t.Setenv("EBOOKSHOP_THIRD", "8082")

	if got := FirstOf("8080", "EBOOKSHOP_FIRST", "EBOOKSHOP_SECOND", "EBOOKSHOP_THIRD"); got != "8081" {
		t.Fatalf("expected 8081, got %q", got)
	}
	if got := FirstOf("8080", "EBOOKSHOP_FIRST"); got != "8080" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestFirstOfTrimsBlankValues(t *testing.T) {
	t.Setenv("EBOOKSHOP_BLANK", "   ")
	t.Setenv("EBOOKSHOP_PADDED", " 9090 ")

	if got := FirstOf("8080", "EBOOKSHOP_BLANK", "EBOOKSHOP_PADDED"); got != "9090" {
		t.Fatalf("expected trimmed 9090, got %q", got)
	}
}
