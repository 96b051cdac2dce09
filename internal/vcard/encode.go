package vcard

import (
	"regexp"
	"sort"
	"strings"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

var (
	noteCommaRunRe = regexp.MustCompile(`,+`)
	noteSemiRunRe  = regexp.MustCompile(`;+`)
)

// Encode serializes a Contact as deterministic vCard 4.0 text. The input is
// treated as a read-only snapshot; collections are emitted sorted by their
// order index. Dates of type Custom have no vCard 4.0 target field and are
// dropped.
func Encode(c *contact.Contact) string {
	e := &encoder{}
	e.line("BEGIN:VCARD")
	e.line("VERSION:4.0")
	e.identityFields(c)
	e.orgFields(c)
	e.phoneFields(c)
	e.emailFields(c)
	e.mailingFields(c)
	e.urlFields(c)
	e.dateFields(c)
	e.noteFields(c)
	e.line(endMarker)
	return e.sb.String()
}

type encoder struct {
	sb strings.Builder
}

func (e *encoder) line(s string) {
	if e.sb.Len() > 0 {
		e.sb.WriteString("\n")
	}
	e.sb.WriteString(s)
}

func (e *encoder) identityFields(c *contact.Contact) {
	first := clean(c.FirstName)
	middle := clean(c.MiddleName)
	last := clean(c.LastName)

	if first != "" || middle != "" || last != "" {
		e.line("N:" + last + ";" + first + ";" + middle + ";;")
		e.line("FN:" + joinNonBlank(" ", first, middle, last))
	}
	if nickname := clean(c.Nickname); nickname != "" {
		e.line("NICKNAME:" + nickname)
	}
	if c.Gender != "" {
		e.line("GENDER:" + string(c.Gender))
	}
}

func (e *encoder) orgFields(c *contact.Contact) {
	company := clean(c.Company)
	department := clean(c.Department)
	occupation := clean(c.Occupation)

	if company != "" {
		e.line("ORG:" + company + ";" + department + ";")
	}
	if occupation != "" {
		e.line("TITLE:" + occupation)
	}
}

func (e *encoder) phoneFields(c *contact.Contact) {
	phones := sortedByOrder(c.PhoneNumbers, func(p contact.PhoneNumber) int { return p.OrderIndex })
	for _, p := range phones {
		number := clean(p.PhoneNumber)

		params := "voice"
		if p.PhoneType != "" {
			params = strings.ToLower(string(p.PhoneType)) + ",voice"
		}
		if p.IsPrimary {
			params += ",pref"
		}
		e.line("TEL;TYPE=" + params + ";VALUE=uri:tel:" + formatTelURI(number))
	}
}

func (e *encoder) emailFields(c *contact.Contact) {
	emails := sortedByOrder(c.EmailAddresses, func(a contact.EmailAddress) int { return a.OrderIndex })
	for _, a := range emails {
		params := "internet"
		if a.EmailType != "" {
			params += "," + strings.ToLower(string(a.EmailType))
		}
		if a.IsPrimary {
			params += ",pref"
		}
		e.line("EMAIL;TYPE=" + params + ":" + clean(a.EmailAddress))
	}
}

func (e *encoder) mailingFields(c *contact.Contact) {
	addrs := sortedByOrder(c.MailingAddresses, func(a contact.MailingAddress) int { return a.OrderIndex })
	for _, a := range addrs {
		line := "ADR"
		if params := typeParams(string(a.AddressType), a.IsPrimary, strings.ToLower); params != "" {
			line += ";TYPE=" + params
		}
		// RFC positional ordering puts the extended address before the
		// street address.
		line += ":;" + clean(a.AddressLine2) + ";" + clean(a.AddressLine1) + ";" +
			clean(a.City) + ";" + clean(a.Region) + ";" + clean(a.PostalCode) + ";" + clean(a.Country)
		e.line(line)
	}
}

func (e *encoder) urlFields(c *contact.Contact) {
	urls := sortedByOrder(c.URLs, func(u contact.URL) int { return u.OrderIndex })
	for _, u := range urls {
		line := "URL"
		if params := typeParams(string(u.URLType), u.IsPrimary, strings.ToUpper); params != "" {
			line += ";TYPE=" + params
		}
		e.line(line + ":" + clean(u.URL))
	}
}

func (e *encoder) dateFields(c *contact.Contact) {
	dates := sortedByOrder(c.Dates, func(d contact.Date) int { return d.OrderIndex })
	for _, d := range dates {
		value := clean(d.DateStr)
		switch d.DateType {
		case contact.DateBirthday:
			e.line("BDAY:" + value)
		case contact.DateAnniversary:
			e.line("ANNIVERSARY:" + value)
		}
	}
}

func (e *encoder) noteFields(c *contact.Contact) {
	notes := sortedByOrder(c.Notes, func(n contact.Note) int { return n.OrderIndex })
	for _, n := range notes {
		e.line("NOTE:" + formatNote(n.Note))
	}
}

// clean strips leading and trailing whitespace only. Embedded
// vCard-significant characters in non-note fields are left as-is.
func clean(s string) string {
	return strings.TrimSpace(s)
}

// formatNote collapses newlines to spaces and runs of commas or semicolons
// to a single delimiter.
func formatNote(n string) string {
	n = strings.ReplaceAll(n, "\n", " ")
	n = noteCommaRunRe.ReplaceAllString(n, ",")
	n = noteSemiRunRe.ReplaceAllString(n, ";")
	return n
}

// formatTelURI regroups a digits-only North American number as
// +1-XXX-XXX-XXXX. Shorter inputs keep whatever groups they can fill.
func formatTelURI(digits string) string {
	return "+1-" + sliceRange(digits, 0, 3) + "-" + sliceRange(digits, 3, 6) + "-" + sliceFrom(digits, 6)
}

func sliceRange(s string, from, to int) string {
	if from > len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}

func sliceFrom(s string, from int) string {
	if from > len(s) {
		return ""
	}
	return s[from:]
}

// typeParams builds the TYPE parameter value for fields where both the type
// and a pref marker are optional.
func typeParams(typ string, primary bool, casing func(string) string) string {
	switch {
	case typ != "" && primary:
		return casing(typ) + ",pref"
	case typ != "":
		return casing(typ)
	case primary:
		return "pref"
	}
	return ""
}

func joinNonBlank(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func sortedByOrder[T any](items []T, order func(T) int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}
