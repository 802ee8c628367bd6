package ingest

import (
	"strings"
	"testing"
)

func TestSegment_NoHeadings(t *testing.T) {
	text := "Just some prose.\nNo headings anywhere."
	got := Segment(text)
	if len(got) != 1 {
		t.Fatalf("got %d sections, want 1", len(got))
	}
	if got[0].Section != "body" || got[0].Text != text {
		t.Fatalf("got %+v, want body section with full text", got[0])
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment("   \n\n  "); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestSegment_HeadingsAndLeadingBody(t *testing.T) {
	text := "Paper Title\nby somebody\n\nAbstract\nWe study things.\n\nIntroduction\nDeep learning is popular.\nIt works.\n"
	got := Segment(text)
	if len(got) != 3 {
		t.Fatalf("got %d sections, want 3: %+v", len(got), got)
	}
	if got[0].Section != "body" || !strings.Contains(got[0].Text, "Paper Title") {
		t.Errorf("leading section = %+v, want body with title", got[0])
	}
	if got[1].Section != "Abstract" {
		t.Errorf("section[1] = %q, want Abstract", got[1].Section)
	}
	if !strings.HasPrefix(got[1].Text, "Abstract\n") || !strings.Contains(got[1].Text, "We study things.") {
		t.Errorf("abstract span = %q", got[1].Text)
	}
	if strings.Contains(got[1].Text, "Introduction") {
		t.Errorf("abstract span leaked into next section: %q", got[1].Text)
	}
	if got[2].Section != "Introduction" || !strings.Contains(got[2].Text, "It works.") {
		t.Errorf("section[2] = %+v", got[2])
	}
}

func TestSegment_CaseInsensitiveKeepsOriginalLabel(t *testing.T) {
	text := "ABSTRACT\ncontent here\n"
	got := Segment(text)
	if len(got) != 1 || got[0].Section != "ABSTRACT" {
		t.Fatalf("got %+v, want single ABSTRACT section", got)
	}
}

func TestSegment_DropsEmptySections(t *testing.T) {
	text := "Abstract\nreal content\n\nReferences\n\n\n"
	got := Segment(text)
	if len(got) != 1 {
		t.Fatalf("got %d sections, want 1: %+v", len(got), got)
	}
	if got[0].Section != "Abstract" {
		t.Fatalf("got %q, want Abstract", got[0].Section)
	}
}

func TestSegment_CoversAllText(t *testing.T) {
	text := "intro text\nIntroduction\nbody of intro\nConclusion\nwrap up\n"
	got := Segment(text)
	var joined strings.Builder
	for _, s := range got {
		joined.WriteString(s.Text)
	}
	if joined.String() != text {
		t.Fatalf("concatenated sections = %q, want original text", joined.String())
	}
}
