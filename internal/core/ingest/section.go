package ingest

import (
	"strings"
)

// Section is a labeled span of a paper-like document.
type Section struct {
	Section string
	Text    string
}

// headingVocabulary is the fixed, closed set of recognized section headings.
// Matching is a case-insensitive exact-line match, deliberately without any
// disambiguation of short lines that merely coincide with a heading term.
var headingVocabulary = map[string]struct{}{
	"abstract":         {},
	"introduction":     {},
	"related work":     {},
	"background":       {},
	"method":           {},
	"methods":          {},
	"methodology":      {},
	"experiment":       {},
	"experiments":      {},
	"result":           {},
	"results":          {},
	"discussion":       {},
	"conclusion":       {},
	"limitation":       {},
	"limitations":      {},
	"future work":      {},
	"acknowledgment":   {},
	"acknowledgments":  {},
	"acknowledgement":  {},
	"acknowledgements": {},
	"references":       {},
	"bibliography":     {},
}

// referenceHeadings mark the tail of a paper. Text from the first such
// heading onward is bibliography material, not retrievable content.
var referenceHeadings = map[string]struct{}{
	"references":       {},
	"bibliography":     {},
	"acknowledgments":  {},
	"acknowledgements": {},
}

// TruncateAtReferences cuts text at the first reference-family heading line.
// The second return reports whether a heading was found; the heading and
// everything after it are removed.
func TruncateAtReferences(text string) (string, bool) {
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if _, ok := referenceHeadings[strings.ToLower(trimmed)]; ok {
				return strings.TrimSpace(text[:offset]), true
			}
		}
		offset += len(line)
	}
	return text, false
}

type headingMark struct {
	label string
	start int // byte offset of the heading's line start
}

// Segment splits paper text into labeled sections. Each recognized heading
// line starts a section running to the next heading (exclusive) or end of
// text. With no recognized headings the whole text is a single "body"
// section; text before the first heading is emitted as a leading "body"
// section. Sections whose content below the heading trims to empty are
// dropped.
func Segment(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var marks []headingMark
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if _, ok := headingVocabulary[strings.ToLower(trimmed)]; ok {
				marks = append(marks, headingMark{label: trimmed, start: offset})
			}
		}
		offset += len(line)
	}

	if len(marks) == 0 {
		return []Section{{Section: "body", Text: text}}
	}

	var sections []Section
	if lead := text[:marks[0].start]; strings.TrimSpace(lead) != "" {
		sections = append(sections, Section{Section: "body", Text: lead})
	}
	for i, mark := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		span := text[mark.start:end]
		if strings.TrimSpace(contentBelowHeading(span)) == "" {
			continue
		}
		sections = append(sections, Section{Section: mark.label, Text: span})
	}
	return sections
}

// contentBelowHeading strips the heading's own line from a section span.
func contentBelowHeading(span string) string {
	if i := strings.IndexByte(span, '\n'); i >= 0 {
		return span[i+1:]
	}
	return ""
}
