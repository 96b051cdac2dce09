package vcard

// Name is the structured N field. The five positional parts are, in order:
// family names, given names, additional names, honorific prefixes, honorific
// suffixes.
type Name struct {
	FamilyNames       string
	GivenNames        string
	AdditionalNames   string
	HonorificPrefixes string
	HonorificSuffixes string
}

// Org is the structured ORG field: organization name followed by up to two
// organizational units.
type Org struct {
	Name  string
	Unit1 string
	Unit2 string
}

// Address is the structured ADR field. The seven positional parts are, in
// order: post office box, extended address, street address, locality, region,
// postal code, country name.
type Address struct {
	PostOfficeBox   string
	ExtendedAddress string
	StreetAddress   string
	Locality        string
	Region          string
	PostalCode      string
	CountryName     string
}

// TypedValue is a scalar structured-field value paired with its TYPE tokens
// (upper-cased, PREF included when present).
type TypedValue struct {
	Types []string
	Value string
}

// HasType reports whether the token is among the value's TYPE tokens.
func (t TypedValue) HasType(token string) bool {
	return hasToken(t.Types, token)
}

// TypedAddress pairs a parsed postal address with its TYPE tokens. Label
// carries a vCard 4.0 LABEL parameter verbatim when one was present.
type TypedAddress struct {
	Types []string
	Value Address
	Label string
}

// HasType reports whether the token is among the address's TYPE tokens.
func (t TypedAddress) HasType(token string) bool {
	return hasToken(t.Types, token)
}

func hasToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Card is one decoded vCard: the property map produced by the field decoder
// and consumed once by the normalizer. Multi-occurrence fields keep
// declaration order; scalar fields keep their first occurrence.
type Card struct {
	Version float64

	Name          *Name
	FormattedName string
	Nickname      string
	Gender        string
	Title         string
	Org           *Org
	Photo         *TypedValue

	Birthday    string
	Anniversary string
	// Date collects custom event dates (X-ABDATE, Android contact events).
	Date string

	Emails    []TypedValue
	Tels      []TypedValue
	URLs      []TypedValue
	Addresses []TypedAddress
	Notes     []string

	// Extensions holds X- fields not demultiplexed into another property.
	Extensions map[string]string
	// Other holds recognized scalar fields the normalizer has no use for
	// (UID, REV, PRODID, and friends).
	Other map[string]string
	// OtherTyped holds recognized structured fields without a dedicated slot
	// (IMPP, LABEL, KEY, LOGO, SOUND).
	OtherTyped map[string]TypedValue
}
