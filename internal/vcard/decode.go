package vcard

import (
	"regexp"
	"slices"
	"strings"
)

var eightDigitDateRe = regexp.MustCompile(`^\d{8}$`)

// decode turns the logical lines of a validated fragment into a Card.
//
// Lines are walked in reverse declaration order: scalar fields overwrite on
// every visit so the first declaration wins, and multi-occurrence fields are
// collected reversed and flipped back to declaration order at the end.
func decode(lines []string, version float64) (*Card, error) {
	if version != 2.1 && version != 3.0 && version != 4.0 {
		return nil, &UnsupportedVersionError{Version: version}
	}

	card := &Card{Version: version}
	inserted := 0

	for i := len(lines) - 1; i >= 0; i-- {
		rawName, value := splitNameValue(lines[i])
		params := strings.Split(rawName, ";")
		name := params[0]
		params = params[1:]

		if name == "BEGIN" || name == "END" {
			continue
		}

		if singleTextFields.has(name) || rfc2425Fields.has(name) || isExtensionField(name) {
			decodeScalar(card, name, value)
			inserted++
			continue
		}

		if err := decodeStructured(card, name, params, value, version); err != nil {
			return nil, err
		}
		inserted++
	}

	if inserted == 0 {
		return nil, &NoFieldsDecodedError{}
	}

	slices.Reverse(card.Notes)
	slices.Reverse(card.Emails)
	slices.Reverse(card.Tels)
	slices.Reverse(card.URLs)
	slices.Reverse(card.Addresses)

	return card, nil
}

// splitNameValue splits a logical line at its first field-separating colon.
// Colons inside http:/https: URLs (including the escaped http\:/https\:
// forms) are part of the value, never separators.
func splitNameValue(line string) (name, value string) {
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		p := line[:i]
		if strings.HasSuffix(p, "http") || strings.HasSuffix(p, "https") ||
			strings.HasSuffix(p, `http\`) || strings.HasSuffix(p, `https\`) {
			continue
		}
		return line[:i], line[i+1:]
	}
	return line, ""
}

func decodeScalar(card *Card, name, value string) {
	switch {
	case name == "X-ABDATE":
		card.Date = hyphenateDate(value)
	case name == "ANNIVERSARY":
		card.Anniversary = hyphenateDate(value)
	case name == "BDAY":
		card.Birthday = hyphenateDate(value)
	case name == genderField, name == "GENDER":
		card.Gender = strings.TrimSpace(value)
	case strings.HasPrefix(name, "X-ANDROID-CUSTOM"):
		switch {
		case strings.Contains(value, "vnd.android.cursor.item/nickname"):
			card.Nickname = positionalPart(value, 1)
		case strings.Contains(value, "vnd.android.cursor.item/contact_event"):
			card.Date = positionalPart(value, 1)
		default:
			card.setExtension(name, value)
		}
	case name == "FN":
		card.FormattedName = value
	case name == "NICKNAME":
		card.Nickname = value
	case name == "TITLE":
		card.Title = value
	case name == "NOTE":
		card.Notes = append(card.Notes, value)
	case isExtensionField(name):
		card.setExtension(name, value)
	default:
		card.setOther(name, value)
	}
}

func decodeStructured(card *Card, name string, params []string, value string, version float64) error {
	types, labels := decodeParams(params, version)

	switch name {
	case "N":
		n, err := parseName(value)
		if err != nil {
			return err
		}
		card.Name = n
	case "ORG":
		org, err := parseOrg(value)
		if err != nil {
			return err
		}
		card.Org = org
	case "ADR":
		addr, err := parseAddress(value)
		if err != nil {
			return err
		}
		ta := TypedAddress{Types: types, Value: *addr}
		if len(labels) > 0 {
			ta.Label = labels[0]
		}
		card.Addresses = append(card.Addresses, ta)
	default:
		if len(labels) > 0 {
			value = labels[0]
		} else if name == "URL" {
			value = repairURLScheme(value)
		}
		tv := TypedValue{Types: types, Value: value}
		switch name {
		case "EMAIL":
			card.Emails = append(card.Emails, tv)
		case "TEL":
			card.Tels = append(card.Tels, tv)
		case "URL":
			card.URLs = append(card.URLs, tv)
		case "PHOTO":
			card.Photo = &tv
		default:
			card.setOtherTyped(name, tv)
		}
	}
	return nil
}

// decodeParams interprets the parameter segments of a structured field per
// the version dialect. For 2.1/3.0 every segment is a bare TYPE token list;
// for 4.0 segments are distinguished by their TYPE=/LABEL=/VALUE= prefixes
// (VALUE carries no information we keep).
func decodeParams(params []string, version float64) (types, labels []string) {
	if version == 4.0 {
		for _, p := range params {
			switch {
			case strings.Contains(p, "TYPE"), strings.Contains(p, "type"):
				p = strings.NewReplacer("TYPE=", "", "type=", "", `"`, "").Replace(p)
				types = appendTokens(types, strings.ToUpper(p))
			case strings.Contains(p, "LABEL"):
				p = strings.NewReplacer("LABEL=", "", `"`, "").Replace(p)
				labels = append(labels, p)
			case strings.Contains(p, "VALUE"):
				// Recognized, carried no further.
			}
		}
		return types, labels
	}
	for _, p := range params {
		p = strings.NewReplacer("TYPE=", "", "type=", "").Replace(p)
		types = appendTokens(types, strings.ToUpper(p))
	}
	return types, nil
}

func appendTokens(dst []string, list string) []string {
	for _, t := range strings.Split(list, ",") {
		if t != "" {
			dst = append(dst, t)
		}
	}
	return dst
}

// parseName decodes the five positional parts of N. Index 0 is family names,
// 1 given names, 2 additional names, 3 honorific prefixes, 4 honorific
// suffixes; missing trailing parts default to empty.
func parseName(value string) (*Name, error) {
	p, err := positionalParts("N", value, 5)
	if err != nil {
		return nil, err
	}
	return &Name{
		FamilyNames:       p[0],
		GivenNames:        p[1],
		AdditionalNames:   p[2],
		HonorificPrefixes: p[3],
		HonorificSuffixes: p[4],
	}, nil
}

// parseOrg decodes the three positional parts of ORG: organization name,
// then two organizational units.
func parseOrg(value string) (*Org, error) {
	p, err := positionalParts("ORG", value, 3)
	if err != nil {
		return nil, err
	}
	return &Org{Name: p[0], Unit1: p[1], Unit2: p[2]}, nil
}

// parseAddress decodes the seven positional parts of ADR: post office box,
// extended address, street address, locality, region, postal code, country.
// Producers that cram "street\nextended" into the street slot with a literal
// \n escape get split back apart.
func parseAddress(value string) (*Address, error) {
	p, err := positionalParts("ADR", value, 7)
	if err != nil {
		return nil, err
	}
	var s []string
	if strings.Contains(p[2], `\n`) {
		s = strings.Split(p[2], `\n`)
	}
	return &Address{
		PostOfficeBox:   p[0],
		ExtendedAddress: firstNonEmpty(elem(s, 1), p[1]),
		StreetAddress:   firstNonEmpty(elem(s, 0), p[2]),
		Locality:        p[3],
		Region:          p[4],
		PostalCode:      p[5],
		CountryName:     p[6],
	}, nil
}

// positionalParts splits a semicolon-delimited value into exactly n slots,
// rejecting part counts that exceed the field's fixed arity.
func positionalParts(field, value string, n int) ([]string, error) {
	parts := strings.Split(value, ";")
	if len(parts) > n {
		return nil, &MalformedFieldError{Field: field, Parts: len(parts)}
	}
	out := make([]string, n)
	copy(out, parts)
	return out, nil
}

// repairURLScheme undoes the escaped scheme colon some exporters emit.
func repairURLScheme(v string) string {
	v = strings.Replace(v, `https\:`, "https:", 1)
	v = strings.Replace(v, `http\:`, "http:", 1)
	return v
}

// hyphenateDate rewrites an 8-digit YYYYMMDD value to YYYY-MM-DD. Anything
// else passes through untouched.
func hyphenateDate(s string) string {
	if !eightDigitDateRe.MatchString(s) {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

// positionalPart returns the i-th semicolon-delimited part of a value, or ""
// when out of range.
func positionalPart(value string, i int) string {
	return elem(strings.Split(value, ";"), i)
}

func elem(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func (c *Card) setExtension(name, value string) {
	if c.Extensions == nil {
		c.Extensions = make(map[string]string)
	}
	c.Extensions[name] = value
}

func (c *Card) setOther(name, value string) {
	if c.Other == nil {
		c.Other = make(map[string]string)
	}
	c.Other[name] = value
}

func (c *Card) setOtherTyped(name string, tv TypedValue) {
	if c.OtherTyped == nil {
		c.OtherTyped = make(map[string]TypedValue)
	}
	c.OtherTyped[name] = tv
}
