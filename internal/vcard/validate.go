package vcard

import (
	"strconv"
	"strings"
)

// Recognized field vocabularies, per category. Kept as package-scoped
// constant sets; validation and decoding both consult them.
var (
	singleTextFields = newFieldSet(
		"AGENT", "ANNIVERSARY", "BDAY", "BEGIN", "END", "FN", "FULLNAME",
		"GENDER", "GEO", genderField, "MAILER", "NICKNAME", "NOTE", "PRODID",
		"REV", "ROLE", "TITLE", "TZ", "UID", "VERSION",
	)
	multipleTextFields = newFieldSet("CATEGORIES", "NICKNAME", "ORG")
	singleBinaryFields = newFieldSet("KEY", "LOGO", "PHOTO", "SOUND")
	rfc2425Fields      = newFieldSet("NAME", "PROFILE", "SOURCE")
	structuredFields   = newFieldSet("ADR", "EMAIL", "IMPP", "LABEL", "N", "PHOTO", "TEL", "URL")

	// Fields that may occur more than once; repeated occurrences accumulate
	// in declaration order. Everything else overwrites (first wins).
	multiOccurrenceFields = newFieldSet("ADR", "EMAIL", "NOTE", "TEL", "URL")
)

type fieldSet map[string]struct{}

func newFieldSet(names ...string) fieldSet {
	s := make(fieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s fieldSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// isExtensionField reports whether name carries the X- vendor prefix.
func isExtensionField(name string) bool {
	return strings.HasPrefix(name, "X-")
}

// fieldName extracts the bare field name of a logical line: everything up to
// the first ':' or ';'.
func fieldName(line string) string {
	if i := strings.IndexAny(line, ":;"); i >= 0 {
		return line[:i]
	}
	return line
}

// validate checks the framing, required fields, and vocabulary of one
// fragment's logical lines. Pure; the same input always yields the same
// verdict. A failure rejects the whole fragment.
func validate(lines []string) error {
	if len(lines) == 0 || lines[0] != "BEGIN:VCARD" || lines[len(lines)-1] != endMarker {
		return &StructureError{Reason: "BEGIN:VCARD or END:VCARD missing"}
	}

	version := detectVersion(lines)

	required := 0
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "VERSION:"), strings.HasPrefix(line, "FN:"), strings.HasPrefix(line, "N:"):
			required++
		}
	}
	if required < 2 {
		return &MissingRequiredFieldsError{Version: version, Found: required}
	}

	// N becomes mandatory at 3.0 and above.
	if version > 2.1 {
		hasName := false
		for _, line := range lines {
			if strings.HasPrefix(line, "N:") {
				hasName = true
				break
			}
		}
		if !hasName {
			return &MissingRequiredFieldsError{Version: version, Found: required}
		}
	}

	for _, line := range lines {
		name := fieldName(line)
		if singleTextFields.has(name) ||
			multipleTextFields.has(name) ||
			rfc2425Fields.has(name) ||
			singleBinaryFields.has(name) ||
			structuredFields.has(name) ||
			isExtensionField(name) {
			continue
		}
		return &UnknownFieldError{Field: name}
	}

	return nil
}

// detectVersion scans the fragment for a VERSION field and parses its value.
// Returns 0 when the field is absent or does not parse as a number.
func detectVersion(lines []string) float64 {
	value := ""
	for _, line := range lines {
		if strings.HasPrefix(line, "VERSION:") {
			value = line[len("VERSION:"):]
			break
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return v
}
