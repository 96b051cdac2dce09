package vcard

import (
	"regexp"
	"strings"
)

// endMarker terminates every complete vCard fragment.
const endMarker = "END:VCARD"

// genderField is the non-standard field Google Contacts appends to the tail
// of the preceding line in its exports, separated only by a literal \n escape.
const genderField = "Gender"

var (
	endMarkerRe = regexp.MustCompile(`(?:\r\n|\r|\n)END:VCARD(?:\r\n|\r|\n)?`)

	// Removes Apple's item<N>. line prefixes and folds soft-wrapped
	// continuations (a line break plus following whitespace) back into the
	// logical line.
	foldRe = regexp.MustCompile(`(?m)^item\d+\.|\r\n[ \t\r\n]*|\r[ \t\r\n]*|\n[ \t\r\n]*`)
)

// SplitEntries splits a raw blob into individual vCard fragments on END:VCARD
// boundaries, re-appending the marker to each fragment produced by a split.
// A trailing remainder without the marker is kept verbatim so validation can
// reject it; a whitespace-only remainder is dropped. Order is preserved.
func SplitEntries(blob string) []string {
	var fragments []string
	rest := blob
	for {
		loc := endMarkerRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		piece := rest[:loc[0]]
		rest = rest[loc[1]:]
		if strings.TrimSpace(piece) == "" {
			continue
		}
		fragments = append(fragments, piece+"\r\n"+endMarker)
	}
	if strings.TrimSpace(rest) != "" {
		fragments = append(fragments, rest)
	}
	return fragments
}

// splitLogicalLines assembles the logical lines of one fragment. A line break
// separates lines only when followed by a non-whitespace byte; otherwise the
// break belongs to a soft-wrapped continuation (base64 photos) and is folded
// away. A literal \n escape immediately before the known Gender extension
// field is also a separator, matching the quirk in Google Contacts exports.
func splitLogicalLines(fragment string) []string {
	var chunks []string
	start := 0
	i := 0
	for i < len(fragment) {
		c := fragment[i]
		if c == '\\' && i+1 < len(fragment) && fragment[i+1] == 'n' &&
			strings.HasPrefix(fragment[i+2:], genderField) {
			chunks = append(chunks, fragment[start:i])
			i += 2
			start = i
			continue
		}
		if c == '\r' || c == '\n' {
			j := i + 1
			if c == '\r' && j < len(fragment) && fragment[j] == '\n' {
				j++
			}
			if j < len(fragment) && !isSpace(fragment[j]) {
				chunks = append(chunks, fragment[start:i])
				start = j
			}
			i = j
			continue
		}
		i++
	}
	if start < len(fragment) {
		chunks = append(chunks, fragment[start:])
	}

	lines := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		line := foldRe.ReplaceAllString(chunk, "")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}
