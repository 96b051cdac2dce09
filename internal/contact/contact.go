package contact

import "github.com/google/uuid"

// Gender mirrors the gender options offered by the contact form.
type Gender string

const (
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderNonbinary   Gender = "Nonbinary"
	GenderTransgender Gender = "Transgender"
	GenderOther       Gender = "Other"
)

// EmailType classifies an email address.
type EmailType string

const (
	EmailHome  EmailType = "Home"
	EmailWork  EmailType = "Work"
	EmailOther EmailType = "Other"
)

// PhoneType classifies a phone number.
type PhoneType string

const (
	PhoneCell  PhoneType = "Cell"
	PhoneHome  PhoneType = "Home"
	PhoneWork  PhoneType = "Work"
	PhoneOther PhoneType = "Other"
)

// AddressType classifies a mailing address.
type AddressType string

const (
	AddressHome  AddressType = "Home"
	AddressWork  AddressType = "Work"
	AddressOther AddressType = "Other"
)

// URLType classifies a URL.
type URLType string

const (
	URLHome  URLType = "Home"
	URLWork  URLType = "Work"
	URLOther URLType = "Other"
)

// DateType classifies a significant date.
type DateType string

const (
	DateBirthday    DateType = "Birthday"
	DateAnniversary DateType = "Anniversary"
	DateCustom      DateType = "Custom"
)

// EmailAddress is one entry in a contact's email collection.
type EmailAddress struct {
	ID           string    `json:"id"`
	IsPrimary    bool      `json:"is_primary"`
	OrderIndex   int       `json:"email_order"`
	EmailType    EmailType `json:"email_type"`
	EmailAddress string    `json:"email_address"`
}

// PhoneNumber is one entry in a contact's phone collection.
type PhoneNumber struct {
	ID          string    `json:"id"`
	IsPrimary   bool      `json:"is_primary"`
	OrderIndex  int       `json:"phone_order"`
	PhoneType   PhoneType `json:"phone_type"`
	PhoneNumber string    `json:"phone_number"`
}

// MailingAddress is one entry in a contact's postal address collection.
type MailingAddress struct {
	ID           string      `json:"id"`
	IsPrimary    bool        `json:"is_primary"`
	OrderIndex   int         `json:"address_order"`
	AddressType  AddressType `json:"address_type"`
	AddressLine1 string      `json:"address_line_1"`
	AddressLine2 string      `json:"address_line_2,omitempty"`
	City         string      `json:"city"`
	Region       string      `json:"region"`
	PostalCode   string      `json:"postal_code"`
	Country      string      `json:"country"`
}

// Date is a significant date attached to a contact. DateCustomType is
// meaningful only when DateType is DateCustom.
type Date struct {
	ID             string   `json:"id"`
	OrderIndex     int      `json:"date_order"`
	DateType       DateType `json:"date_type"`
	DateCustomType string   `json:"date_custom_type,omitempty"`
	DateStr        string   `json:"date_str"`
}

// URL is one entry in a contact's link collection.
type URL struct {
	ID         string  `json:"id"`
	IsPrimary  bool    `json:"is_primary"`
	OrderIndex int     `json:"url_order"`
	URLType    URLType `json:"url_type"`
	URL        string  `json:"url"`
}

// Note is one free-text note attached to a contact.
type Note struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"note_order"`
	Note       string `json:"note"`
}

// Contact is the normalized contact record shared across the application.
type Contact struct {
	ID          string `json:"id"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Gender      Gender `json:"gender,omitempty"`
	GenderOther string `json:"gender_other,omitempty"`

	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
	Occupation string `json:"occupation,omitempty"`

	EmailAddresses   []EmailAddress   `json:"email_addresses"`
	PhoneNumbers     []PhoneNumber    `json:"phone_numbers"`
	MailingAddresses []MailingAddress `json:"mailing_addresses"`
	Dates            []Date           `json:"dates"`
	URLs             []URL            `json:"urls"`
	Notes            []Note           `json:"notes"`

	// PhotoURI is a transient decode artifact (remote URL or data: URI)
	// consumed by the photo upload pipeline. It is never persisted.
	PhotoURI string `json:"photo_uri,omitempty"`
}

// DisplayName joins the non-blank name parts with single spaces.
func (c *Contact) DisplayName() string {
	name := c.FirstName
	if c.MiddleName != "" {
		name += " " + c.MiddleName
	}
	if c.LastName != "" {
		name += " " + c.LastName
	}
	return name
}

// NewID creates a fresh identifier for a contact or sub-item. Safe for
// concurrent use.
func NewID() string {
	return uuid.NewString()
}
