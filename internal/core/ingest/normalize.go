package ingest

import (
	"regexp"
	"strings"
)

var (
	horizontalWS = regexp.MustCompile(`[ \f\v]+`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw extracted text: one newline convention, tabs to
// spaces, collapsed horizontal whitespace, at most one blank line in a row,
// trimmed ends. Idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
