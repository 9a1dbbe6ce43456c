package client

import "strings"

// Address mirrors the referral API's address object.
type Address struct {
	HomeNameOrNumber string `json:"homeNameOrNumber"`
	Street           string `json:"street"`
	Suburb           string `json:"suburb"`
	State            string `json:"state"`
	Postcode         string `json:"postcode"`
	Country          string `json:"country"`
}

// Referral mirrors the referral API's referral object.
type Referral struct {
	ID        string  `json:"id,omitempty"`
	GivenName string  `json:"givenName"`
	Surname   string  `json:"surname"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

// FullName returns "GivenName Surname", skipping empty parts.
func (r Referral) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(r.GivenName) + " " + strings.TrimSpace(r.Surname))
}
