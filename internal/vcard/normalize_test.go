package vcard

import (
	"strings"
	"testing"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

func decodeOne(t *testing.T, blob string) *contact.Contact {
	t.Helper()
	contacts, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("Decode() returned %d contacts, want 1", len(contacts))
	}
	return contacts[0]
}

// The §8-style scenario: a simple 3.0 card with one home email.
func TestNormalizeSimpleCard(t *testing.T) {
	blob := "BEGIN:VCARD\nVERSION:3.0\nN:Doe;Jane;;;\nFN:Jane Doe\nEMAIL;TYPE=HOME:jane@example.com\nEND:VCARD"
	c := decodeOne(t, blob)

	if c.FirstName != "Jane" {
		t.Errorf("FirstName = %q, want %q", c.FirstName, "Jane")
	}
	if c.LastName != "Doe" {
		t.Errorf("LastName = %q, want %q", c.LastName, "Doe")
	}
	if len(c.EmailAddresses) != 1 {
		t.Fatalf("expected 1 email, got %d", len(c.EmailAddresses))
	}
	email := c.EmailAddresses[0]
	if email.EmailType != contact.EmailHome {
		t.Errorf("EmailType = %q, want Home", email.EmailType)
	}
	if !email.IsPrimary {
		t.Error("first email should be primary")
	}
	if email.EmailAddress != "jane@example.com" {
		t.Errorf("EmailAddress = %q", email.EmailAddress)
	}
	if c.ID == "" || email.ID == "" {
		t.Error("identifiers must be generated for contact and sub-items")
	}
}

// A PREF token anywhere in the group overrides the index-0 convention.
func TestNormalizePrefOverridesFirstItem(t *testing.T) {
	blob := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:Doe;Jane;;;",
		"FN:Jane Doe",
		"TEL;TYPE=HOME:555-0100",
		"TEL;TYPE=CELL,PREF:555-0199",
		"END:VCARD",
	}, "\n")
	c := decodeOne(t, blob)

	if len(c.PhoneNumbers) != 2 {
		t.Fatalf("expected 2 phones, got %d", len(c.PhoneNumbers))
	}
	if c.PhoneNumbers[0].IsPrimary {
		t.Error("first phone must not be primary when another carries PREF")
	}
	if !c.PhoneNumbers[1].IsPrimary {
		t.Error("PREF-carrying phone must be primary")
	}
	if c.PhoneNumbers[1].PhoneType != contact.PhoneCell {
		t.Errorf("PhoneType = %q, want Cell", c.PhoneNumbers[1].PhoneType)
	}
}

// Every TEL carries a voice token on the wire, so VOICE maps to Cell only
// when no more specific type token accompanies it.
func TestNormalizePhoneTypeTokens(t *testing.T) {
	tests := []struct {
		params string
		want   contact.PhoneType
	}{
		{"CELL,VOICE", contact.PhoneCell},
		{"home,voice,pref", contact.PhoneHome},
		{"work,voice", contact.PhoneWork},
		{"other,voice", contact.PhoneOther},
		{"VOICE", contact.PhoneCell},
		{"FAX", contact.PhoneOther},
	}
	for _, tt := range tests {
		t.Run(tt.params, func(t *testing.T) {
			blob := strings.Join([]string{
				"BEGIN:VCARD",
				"VERSION:3.0",
				"N:Doe;Jane;;;",
				"FN:Jane Doe",
				"TEL;TYPE=" + tt.params + ":555-0100",
				"END:VCARD",
			}, "\n")
			c := decodeOne(t, blob)
			if len(c.PhoneNumbers) != 1 {
				t.Fatalf("expected 1 phone, got %d", len(c.PhoneNumbers))
			}
			if got := c.PhoneNumbers[0].PhoneType; got != tt.want {
				t.Errorf("TYPE=%s: PhoneType = %q, want %q", tt.params, got, tt.want)
			}
		})
	}
}

// Exactly one primary per non-empty collection, and order indexes densely
// cover 0..n-1.
func TestNormalizePrimaryAndOrder(t *testing.T) {
	blob := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:Doe;Jane;;;",
		"FN:Jane Doe",
		"EMAIL;TYPE=HOME:a@example.com",
		"EMAIL;TYPE=WORK:b@example.com",
		"EMAIL:c@example.com",
		"TEL;TYPE=CELL:555-0100",
		"TEL;TYPE=WORK:555-0101",
		"URL:https://a.example.com",
		"URL;TYPE=WORK:https://b.example.com",
		"ADR;TYPE=HOME:;;1 A St;City;;;",
		"ADR;TYPE=WORK:;;2 B St;City;;;",
		"END:VCARD",
	}, "\n")
	c := decodeOne(t, blob)

	checkPrimaries := func(name string, primaries []bool) {
		count := 0
		for _, p := range primaries {
			if p {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: %d primary items, want exactly 1", name, count)
		}
	}
	emailPrimaries := make([]bool, 0, len(c.EmailAddresses))
	for i, e := range c.EmailAddresses {
		emailPrimaries = append(emailPrimaries, e.IsPrimary)
		if e.OrderIndex != i {
			t.Errorf("email order index %d at position %d", e.OrderIndex, i)
		}
	}
	checkPrimaries("emails", emailPrimaries)

	phonePrimaries := make([]bool, 0, len(c.PhoneNumbers))
	for i, p := range c.PhoneNumbers {
		phonePrimaries = append(phonePrimaries, p.IsPrimary)
		if p.OrderIndex != i {
			t.Errorf("phone order index %d at position %d", p.OrderIndex, i)
		}
	}
	checkPrimaries("phones", phonePrimaries)

	urlPrimaries := make([]bool, 0, len(c.URLs))
	for i, u := range c.URLs {
		urlPrimaries = append(urlPrimaries, u.IsPrimary)
		if u.OrderIndex != i {
			t.Errorf("url order index %d at position %d", u.OrderIndex, i)
		}
	}
	checkPrimaries("urls", urlPrimaries)

	addrPrimaries := make([]bool, 0, len(c.MailingAddresses))
	for i, a := range c.MailingAddresses {
		addrPrimaries = append(addrPrimaries, a.IsPrimary)
		if a.OrderIndex != i {
			t.Errorf("address order index %d at position %d", a.OrderIndex, i)
		}
	}
	checkPrimaries("addresses", addrPrimaries)
}

func TestNormalizeFormattedNameFallback(t *testing.T) {
	tests := []struct {
		name   string
		fn     string
		first  string
		middle string
		last   string
	}{
		{"three tokens", "Jane Quinn Doe", "Jane", "Quinn", "Doe"},
		{"two tokens", "Jane Doe", "Jane", "", "Doe"},
		{"one token", "Jane", "Jane", "", ""},
		{"four tokens ignored", "Jane Quinn van Doe", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := "BEGIN:VCARD\nVERSION:2.1\nFN:" + tt.fn + "\nEND:VCARD"
			c := decodeOne(t, blob)
			if c.FirstName != tt.first || c.MiddleName != tt.middle || c.LastName != tt.last {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)",
					c.FirstName, c.MiddleName, c.LastName, tt.first, tt.middle, tt.last)
			}
		})
	}
}

func TestNormalizeNameFieldNeverOverwrittenByFN(t *testing.T) {
	blob := "BEGIN:VCARD\nVERSION:3.0\nN:Doe;Jane;;;\nFN:Completely Different Name\nEND:VCARD"
	c := decodeOne(t, blob)
	if c.FirstName != "Jane" || c.LastName != "Doe" {
		t.Errorf("N must win over FN, got (%q, %q)", c.FirstName, c.LastName)
	}
	// The middle slot was left empty by N, so FN's middle token fills it.
	if c.MiddleName != "Different" {
		t.Errorf("MiddleName = %q, want FN to fill the gap", c.MiddleName)
	}
}

func TestNormalizePhoneNumberDigits(t *testing.T) {
	tests := []struct{ in, want string }{
		{"(555) 010-0199", "5550100199"},
		{"+1-555-010-0199", "5550100199"},
		{"555-0100", "5550100"},
		{"tel:+1-555-123-4567", "5551234567"},
	}
	for _, tt := range tests {
		if got := normalizePhoneNumber(tt.in); got != tt.want {
			t.Errorf("normalizePhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeOrgPrefersSecondUnit(t *testing.T) {
	tests := []struct {
		name       string
		org        string
		company    string
		department string
	}{
		{"both units", "Acme;Engineering;Platform", "Acme", "Platform"},
		{"first unit only", "Acme;Engineering;", "Acme", "Engineering"},
		{"name only", "Acme;;", "Acme", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := "BEGIN:VCARD\nVERSION:3.0\nN:Doe;Jane;;;\nFN:Jane Doe\nORG:" + tt.org + "\nEND:VCARD"
			c := decodeOne(t, blob)
			if c.Company != tt.company {
				t.Errorf("Company = %q, want %q", c.Company, tt.company)
			}
			if c.Department != tt.department {
				t.Errorf("Department = %q, want %q", c.Department, tt.department)
			}
		})
	}
}

func TestNormalizePhoto(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "base64 jpeg becomes data uri",
			line: "PHOTO;ENCODING=BASE64;JPEG:QUJDREVG",
			want: "data:image/jpeg;base64,QUJDREVG",
		},
		{
			name: "base64 png becomes data uri",
			line: "PHOTO;ENCODING=BASE64;PNG:QUJDREVG",
			want: "data:image/png;base64,QUJDREVG",
		},
		{
			name: "base64 with unrecognized subtype dropped",
			line: "PHOTO;ENCODING=BASE64;TIFF:QUJDREVG",
			want: "",
		},
		{
			name: "external uri passes through",
			line: "PHOTO;TYPE=JPEG:https://example.com/jane.jpg",
			want: "https://example.com/jane.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := "BEGIN:VCARD\nVERSION:2.1\nFN:Jane Doe\nN:Doe;Jane;;;\n" + tt.line + "\nEND:VCARD"
			c := decodeOne(t, blob)
			if c.PhotoURI != tt.want {
				t.Errorf("PhotoURI = %q, want %q", c.PhotoURI, tt.want)
			}
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	blob := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:Doe;Jane;;;",
		"FN:Jane Doe",
		"BDAY:19900501",
		"ANNIVERSARY:2010-06-15",
		"X-ABDATE:20160401",
		"END:VCARD",
	}, "\n")
	c := decodeOne(t, blob)

	if len(c.Dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(c.Dates))
	}
	wantTypes := []contact.DateType{contact.DateBirthday, contact.DateAnniversary, contact.DateCustom}
	wantValues := []string{"1990-05-01", "2010-06-15", "2016-04-01"}
	for i, d := range c.Dates {
		if d.DateType != wantTypes[i] {
			t.Errorf("Dates[%d].DateType = %q, want %q", i, d.DateType, wantTypes[i])
		}
		if d.DateStr != wantValues[i] {
			t.Errorf("Dates[%d].DateStr = %q, want %q", i, d.DateStr, wantValues[i])
		}
		if d.OrderIndex != i {
			t.Errorf("Dates[%d].OrderIndex = %d", i, d.OrderIndex)
		}
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		gender      contact.Gender
		genderOther string
	}{
		{"known enum", "Female", contact.GenderFemale, ""},
		{"free text", "agender", contact.GenderOther, "agender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := "BEGIN:VCARD\nVERSION:3.0\nN:Doe;Jane;;;\nFN:Jane Doe\nGender:" + tt.value + "\nEND:VCARD"
			c := decodeOne(t, blob)
			if c.Gender != tt.gender {
				t.Errorf("Gender = %q, want %q", c.Gender, tt.gender)
			}
			if c.GenderOther != tt.genderOther {
				t.Errorf("GenderOther = %q, want %q", c.GenderOther, tt.genderOther)
			}
		})
	}
}

func TestNormalizeNotes(t *testing.T) {
	blob := "BEGIN:VCARD\nVERSION:3.0\nN:Doe;Jane;;;\nFN:Jane Doe\nNOTE:alpha\nNOTE:beta\nEND:VCARD"
	c := decodeOne(t, blob)
	if len(c.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(c.Notes))
	}
	if c.Notes[0].Note != "alpha" || c.Notes[1].Note != "beta" {
		t.Errorf("Notes = %+v, want declaration order kept", c.Notes)
	}
}
