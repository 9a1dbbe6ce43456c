package domain

import (
	"fmt"
	"strings"
)

// Address is the postal address attached to a referral. All fields are free text.
type Address struct {
	HomeNameOrNumber string `json:"homeNameOrNumber"`
	Street           string `json:"street"`
	Suburb           string `json:"suburb"`
	State            string `json:"state"`
	Postcode         string `json:"postcode"`
	Country          string `json:"country"`
}

// Referral is a referred person with contact details and an address.
// The ID is assigned by the server on create and never changes.
type Referral struct {
	ID        string  `json:"id"`
	GivenName string  `json:"givenName"`
	Surname   string  `json:"surname"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

// RequiredFields returns the JSON paths and values of every field a referral
// must carry, in form order.
func (r *Referral) RequiredFields() []Field {
	return []Field{
		{"givenName", r.GivenName},
		{"surname", r.Surname},
		{"email", r.Email},
		{"phone", r.Phone},
		{"address.homeNameOrNumber", r.Address.HomeNameOrNumber},
		{"address.street", r.Address.Street},
		{"address.suburb", r.Address.Suburb},
		{"address.state", r.Address.State},
		{"address.postcode", r.Address.Postcode},
		{"address.country", r.Address.Country},
	}
}

// Field is a named referral value.
type Field struct {
	Path  string
	Value string
}

// Validate reports the first required field that is blank. Whitespace-only
// values count as blank.
func (r *Referral) Validate() error {
	for _, f := range r.RequiredFields() {
		if strings.TrimSpace(f.Value) == "" {
			return fmt.Errorf("%s is required", f.Path)
		}
	}
	return nil
}

// Normalize trims surrounding whitespace from every text field.
func (r *Referral) Normalize() {
	r.GivenName = strings.TrimSpace(r.GivenName)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address.HomeNameOrNumber = strings.TrimSpace(r.Address.HomeNameOrNumber)
	r.Address.Street = strings.TrimSpace(r.Address.Street)
	r.Address.Suburb = strings.TrimSpace(r.Address.Suburb)
	r.Address.State = strings.TrimSpace(r.Address.State)
	r.Address.Postcode = strings.TrimSpace(r.Address.Postcode)
	r.Address.Country = strings.TrimSpace(r.Address.Country)
}
