package types

import "strings"

// Address is the shipping address attached to a recipient. Orders keep
// their own denormalized copy taken at emission time, so later edits to a
// recipient never rewrite history.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// IsZero reports whether no address fields have been populated.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// Normalized returns a copy with trimmed fields and the country defaulted
// to US when absent.
func (a Address) Normalized() Address {
	out := Address{
		Line1:      strings.TrimSpace(a.Line1),
		City:       strings.TrimSpace(a.City),
		State:      strings.ToUpper(strings.TrimSpace(a.State)),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if a.Line2 != nil {
		if trimmed := strings.TrimSpace(*a.Line2); trimmed != "" {
			out.Line2 = &trimmed
		}
	}
	if out.Country == "" {
		out.Country = "US"
	}
	return out
}
