package courseguide

import "regexp"

var (
	codeFenceRe        = regexp.MustCompile("```json|```")
	nonPrintableRe     = regexp.MustCompile(`[^\x20-\x7E\n\r]`)
	objTrailingCommaRe = regexp.MustCompile(`(?:,\s*)+}`)
	arrTrailingCommaRe = regexp.MustCompile(`(?:,\s*)+]`)
	emptyQuotedLineRe  = regexp.MustCompile(`(?m)^\s*"\s*",?\s*$`)
)

// Sanitize repairs near-valid JSON from a model reply: code fences, control
// and non-ASCII characters, trailing commas and empty-string lines are removed.
//
// Only lowercase ```json and bare ``` fences are stripped. Any other tag
// (```JSON, ```javascript) leaves its word in place, so the text fails to
// parse downstream.
//
// A pass can expose new matches (dropping a control byte may join two
// fences), so passes repeat until the text stops changing. Every rule strictly
// shortens the text, which bounds the loop and makes Sanitize idempotent.
func Sanitize(raw string) string {
	out := raw
	for {
		next := sanitizePass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func sanitizePass(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	s = nonPrintableRe.ReplaceAllString(s, "")
	s = objTrailingCommaRe.ReplaceAllString(s, "}")
	s = arrTrailingCommaRe.ReplaceAllString(s, "]")
	s = emptyQuotedLineRe.ReplaceAllString(s, "")
	return s
}
