package vcard

import (
	"strings"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

const (
	tokenPref = "PREF"
	tokenHome = "HOME"
	tokenWork = "WORK"
)

// Normalize maps a decoded Card onto a fresh Contact. Deterministic for a
// given card apart from the generated identifiers. Fields the application
// schema has no slot for are ignored; decoding is strict, normalization is
// best-effort.
func Normalize(card *Card) *contact.Contact {
	c := &contact.Contact{ID: contact.NewID()}

	normalizeName(card, c)
	normalizeGender(card, c)
	if card.Nickname != "" {
		c.Nickname = card.Nickname
	}
	normalizeOrg(card, c)
	if card.Title != "" {
		c.Occupation = card.Title
	}
	normalizeEmails(card, c)
	normalizeTels(card, c)
	normalizeAddresses(card, c)
	normalizeURLs(card, c)
	normalizeDates(card, c)
	normalizeNotes(card, c)
	normalizePhoto(card, c)

	return c
}

// normalizeName fills name parts from N, falling back to splitting FN into
// one to three whitespace-delimited tokens. N always wins over FN.
func normalizeName(card *Card, c *contact.Contact) {
	if n := card.Name; n != nil {
		c.FirstName = n.GivenNames
		c.MiddleName = n.AdditionalNames
		c.LastName = n.FamilyNames
	}
	if card.FormattedName == "" {
		return
	}
	parts := strings.Split(card.FormattedName, " ")
	switch len(parts) {
	case 3:
		setIfEmpty(&c.FirstName, parts[0])
		setIfEmpty(&c.MiddleName, parts[1])
		setIfEmpty(&c.LastName, parts[2])
	case 2:
		setIfEmpty(&c.FirstName, parts[0])
		setIfEmpty(&c.LastName, parts[1])
	case 1:
		setIfEmpty(&c.FirstName, parts[0])
	}
}

// normalizeGender maps the Google Contacts Gender extension onto the enum,
// collecting anything unrecognized under Other with the free text preserved.
func normalizeGender(card *Card, c *contact.Contact) {
	if card.Gender == "" {
		return
	}
	switch g := contact.Gender(card.Gender); g {
	case contact.GenderMale, contact.GenderFemale, contact.GenderNonbinary, contact.GenderTransgender, contact.GenderOther:
		c.Gender = g
	default:
		c.Gender = contact.GenderOther
		c.GenderOther = card.Gender
	}
}

func normalizeOrg(card *Card, c *contact.Contact) {
	org := card.Org
	if org == nil {
		return
	}
	if org.Name != "" {
		c.Company = org.Name
	}
	if org.Unit1 != "" || org.Unit2 != "" {
		c.Department = firstNonEmpty(org.Unit2, org.Unit1)
	}
}

func normalizeEmails(card *Card, c *contact.Contact) {
	anyPref := anyHasPref(card.Emails)
	for i, e := range card.Emails {
		c.EmailAddresses = append(c.EmailAddresses, contact.EmailAddress{
			ID:           contact.NewID(),
			IsPrimary:    isPrimary(anyPref, e.HasType(tokenPref), i),
			OrderIndex:   i,
			EmailType:    contact.EmailType(homeWorkOther(e.Types)),
			EmailAddress: e.Value,
		})
	}
}

func normalizeTels(card *Card, c *contact.Contact) {
	anyPref := anyHasPref(card.Tels)
	for i, t := range card.Tels {
		c.PhoneNumbers = append(c.PhoneNumbers, contact.PhoneNumber{
			ID:          contact.NewID(),
			IsPrimary:   isPrimary(anyPref, t.HasType(tokenPref), i),
			OrderIndex:  i,
			PhoneType:   phoneType(t.Types),
			PhoneNumber: normalizePhoneNumber(t.Value),
		})
	}
}

func normalizeAddresses(card *Card, c *contact.Contact) {
	anyPref := false
	for _, a := range card.Addresses {
		if a.HasType(tokenPref) {
			anyPref = true
			break
		}
	}
	for i, a := range card.Addresses {
		c.MailingAddresses = append(c.MailingAddresses, contact.MailingAddress{
			ID:           contact.NewID(),
			IsPrimary:    isPrimary(anyPref, a.HasType(tokenPref), i),
			OrderIndex:   i,
			AddressType:  contact.AddressType(homeWorkOther(a.Types)),
			AddressLine1: a.Value.StreetAddress,
			AddressLine2: firstNonEmpty(a.Value.ExtendedAddress, a.Value.PostOfficeBox),
			City:         a.Value.Locality,
			Region:       a.Value.Region,
			PostalCode:   a.Value.PostalCode,
			Country:      a.Value.CountryName,
		})
	}
}

func normalizeURLs(card *Card, c *contact.Contact) {
	anyPref := anyHasPref(card.URLs)
	for i, u := range card.URLs {
		c.URLs = append(c.URLs, contact.URL{
			ID:         contact.NewID(),
			IsPrimary:  isPrimary(anyPref, u.HasType(tokenPref), i),
			OrderIndex: i,
			URLType:    contact.URLType(homeWorkOther(u.Types)),
			URL:        u.Value,
		})
	}
}

// normalizeDates fans BDAY, ANNIVERSARY, and the custom-event DATE into the
// dates collection with dense order indexes. Only the generic custom case
// gets a (blank) custom-type slot.
func normalizeDates(card *Card, c *contact.Contact) {
	appendDate := func(t contact.DateType, value string) {
		if value == "" {
			return
		}
		d := contact.Date{
			ID:         contact.NewID(),
			OrderIndex: len(c.Dates),
			DateType:   t,
			DateStr:    value,
		}
		c.Dates = append(c.Dates, d)
	}
	appendDate(contact.DateBirthday, card.Birthday)
	appendDate(contact.DateAnniversary, card.Anniversary)
	appendDate(contact.DateCustom, card.Date)
}

func normalizeNotes(card *Card, c *contact.Contact) {
	for i, note := range card.Notes {
		c.Notes = append(c.Notes, contact.Note{
			ID:         contact.NewID(),
			OrderIndex: i,
			Note:       note,
		})
	}
}

// normalizePhoto synthesizes a data: URI for recognized base64-encoded image
// subtypes, or passes an external URI through. The result is transient; the
// photo pipeline owns fetch-and-store.
func normalizePhoto(card *Card, c *contact.Contact) {
	p := card.Photo
	if p == nil {
		return
	}
	if !p.HasType("ENCODING=BASE64") {
		c.PhotoURI = p.Value
		return
	}
	for _, subtype := range []string{"GIF", "PNG", "JPEG"} {
		if p.HasType(subtype) {
			c.PhotoURI = "data:image/" + strings.ToLower(subtype) + ";base64," + p.Value
			return
		}
	}
}

// normalizePhoneNumber strips a number to digits, dropping a leading
// country-code digit when more than ten remain.
func normalizePhoneNumber(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		return digits[1:]
	}
	return digits
}

// isPrimary applies the PREF-if-any-else-index-0 rule: when any item in the
// group carries PREF, only PREF-carrying items are primary; otherwise the
// first item is.
func isPrimary(groupHasPref, hasPref bool, index int) bool {
	if groupHasPref {
		return hasPref
	}
	return index == 0
}

func anyHasPref(values []TypedValue) bool {
	for _, v := range values {
		if v.HasType(tokenPref) {
			return true
		}
	}
	return false
}

func homeWorkOther(types []string) string {
	if hasToken(types, tokenHome) {
		return "Home"
	}
	if hasToken(types, tokenWork) {
		return "Work"
	}
	return "Other"
}

func phoneType(types []string) contact.PhoneType {
	// The encoder tags every TEL with a voice token, so a VOICE token means
	// cellular only when no more specific type accompanies it.
	switch {
	case hasToken(types, "CELL"):
		return contact.PhoneCell
	case hasToken(types, tokenHome):
		return contact.PhoneHome
	case hasToken(types, tokenWork):
		return contact.PhoneWork
	case hasToken(types, "OTHER"):
		return contact.PhoneOther
	case hasToken(types, "VOICE"):
		return contact.PhoneCell
	}
	return contact.PhoneOther
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
