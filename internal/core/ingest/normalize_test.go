package ingest

import "testing"

func TestNormalize_LineEndingsAndWhitespace(t *testing.T) {
	in := "a\r\nb\rc\td   e\n\n\n\nf"
	want := "a\nb\nc d e\n\nf"
	if got := Normalize(in); got != want {
		t.Fatalf("Normalize() = %q, want %q", got, want)
	}
}

func TestNormalize_TrimsEdges(t *testing.T) {
	if got := Normalize("  \n hello \n  "); got != "hello" {
		t.Fatalf("Normalize() = %q, want %q", got, "hello")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "Title\r\n\r\n\r\nBody\twith\tspaces   here"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Fatalf("second pass changed output: %q vs %q", twice, once)
	}
}

func TestNormalize_PreservesParagraphBreaks(t *testing.T) {
	in := "para one\n\npara two"
	if got := Normalize(in); got != in {
		t.Fatalf("Normalize() = %q, want unchanged", got)
	}
}
