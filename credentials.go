package portal

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type credentialKind int

const (
	credentialEmail credentialKind = iota + 1
	credentialInstitutionalID
)

// Credential is a member login identifier. The server wants a concrete
// field name (email or institutionalId), so the identifier is carried as a
// tagged value and resolved at transmission time, never shipped raw.
type Credential struct {
	kind  credentialKind
	value string
}

// EmailCredential identifies a member by email address.
func EmailCredential(email string) Credential {
	return Credential{kind: credentialEmail, value: strings.TrimSpace(email)}
}

// InstitutionalIDCredential identifies a member by institutional ID.
func InstitutionalIDCredential(id string) Credential {
	return Credential{kind: credentialInstitutionalID, value: strings.TrimSpace(id)}
}

// ParseIdentifier classifies a free-form identifier the way the login form
// does: anything containing '@' is an email, the rest is an institutional
// ID.
func ParseIdentifier(identifier string) Credential {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return Credential{kind: credentialEmail, value: identifier}
	}
	return Credential{kind: credentialInstitutionalID, value: identifier}
}

// IsZero reports whether the credential carries no value.
func (c Credential) IsZero() bool {
	return c.kind == 0 || c.value == ""
}

// IsEmail reports whether the credential is an email address.
func (c Credential) IsEmail() bool {
	return c.kind == credentialEmail
}

func (c Credential) String() string {
	return c.value
}

// Validate checks the credential for transmission.
func (c Credential) Validate() error {
	switch c.kind {
	case credentialEmail:
		return validation.Validate(c.value, validation.Required, is.Email)
	case credentialInstitutionalID:
		return validation.Validate(c.value, validation.Required)
	default:
		return validation.Validate("", validation.Required)
	}
}

// wireField resolves the server-side field name and value.
func (c Credential) wireField() (string, string) {
	if c.kind == credentialEmail {
		return "email", c.value
	}
	return "institutionalId", c.value
}
