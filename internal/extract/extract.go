// Package extract isolates the JSON payload embedded in a store-location
// page and maps it onto the flat store record schema. Pages embed their data
// as a Next.js __NEXT_DATA__ object; the payload is located textually, so no
// HTML parsing is involved.
package extract

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Extraction failure taxonomy. All are per-page and recoverable: the caller
// records the failure and moves on to the next URL.
var (
	ErrMarkerNotFound   = eris.New("extract: payload marker not found")
	ErrUnbalancedBraces = eris.New("extract: unbalanced braces in payload")
	ErrJSONSyntax       = eris.New("extract: payload is not valid JSON")
	ErrLocationMissing  = eris.New("extract: no location object in payload")
)

const (
	primaryMarker   = `"__NEXT_DATA__":`
	alternateMarker = `id="__NEXT_DATA__"`
	scriptClose     = "</script>"
)

// Payload locates the embedded JSON payload in raw page text and returns it
// as a string. The primary strategy finds the inline `"__NEXT_DATA__":`
// marker and brace-balances from there; pages that embed the payload in a
// dedicated script tag instead are handled by taking everything between the
// tag's closing `>` and the `</script>` literal.
func Payload(page string) (string, error) {
	if idx := strings.Index(page, primaryMarker); idx >= 0 {
		return balancedObject(page[idx+len(primaryMarker):])
	}

	idx := strings.Index(page, alternateMarker)
	if idx < 0 {
		return "", ErrMarkerNotFound
	}
	open := strings.IndexByte(page[idx:], '>')
	if open < 0 {
		return "", ErrMarkerNotFound
	}
	start := idx + open + 1
	end := strings.Index(page[start:], scriptClose)
	if end < 0 {
		return "", ErrMarkerNotFound
	}
	return page[start : start+end], nil
}

// balancedObject scans text for a complete JSON object starting at its first
// opening brace. Braces only count outside string literals; a backslash
// escapes exactly one following character, so escaped quotes do not end a
// string. The scan stops the instant the depth returns to zero after the
// object opened. All significant characters are ASCII, so a byte loop is
// safe on UTF-8 input.
func balancedObject(text string) (string, error) {
	depth := 0
	opened := false
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch text[i] {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
				opened = true
			}
		case '}':
			if !inString {
				depth--
				if opened && depth == 0 {
					return text[:i+1], nil
				}
			}
		}
	}

	return "", ErrUnbalancedBraces
}
