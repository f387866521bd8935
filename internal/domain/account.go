package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AccountKind discriminates donor and NGO accounts stored side by side.
type AccountKind string

const (
	AccountKindDonor AccountKind = "donor"
	AccountKindNGO   AccountKind = "ngo"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	return k == AccountKindDonor || k == AccountKindNGO
}

// Account is either a donor or an NGO. Kind-specific fields are left empty for
// the other kind.
type Account struct {
	ID           string
	Kind         AccountKind
	Email        string
	PasswordHash string
	Mobile       string

	// donor
	FirstName string
	LastName  string

	// ngo
	Name               string
	RegistrationNumber string
	Address            string
	ItemsAccepted      []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName is the name embedded in session tokens and shown on dashboards.
func (a Account) DisplayName() string {
	if a.Kind == AccountKindNGO {
		return a.Name
	}
	return a.FirstName
}

// FullName joins the donor's first and last name; NGOs return their name.
func (a Account) FullName() string {
	if a.Kind == AccountKindNGO {
		return a.Name
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NormalizeEmail trims and lower-cases an address so lookups hit the unique index.
func NormalizeEmail(email string) string {
	// Casers keep state, so each call gets its own.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
