package valueobject

import "strings"

// Address is a postal address attached to a customer.
// It is immutable; the With* helpers return modified copies.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// NewAddress creates a trimmed Address
func NewAddress(street, city, state, zip, country string) Address {
	return Address{
		Street:  strings.TrimSpace(street),
		City:    strings.TrimSpace(city),
		State:   strings.TrimSpace(state),
		Zip:     strings.TrimSpace(zip),
		Country: strings.TrimSpace(country),
	}
}

// IsEmpty returns true if no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// WithCountry returns a copy with the country replaced
func (a Address) WithCountry(country string) Address {
	a.Country = strings.TrimSpace(country)
	return a
}

// Merge fills the empty fields of a from other
func (a Address) Merge(other Address) Address {
	if a.Street == "" {
		a.Street = other.Street
	}
	if a.City == "" {
		a.City = other.City
	}
	if a.State == "" {
		a.State = other.State
	}
	if a.Zip == "" {
		a.Zip = other.Zip
	}
	if a.Country == "" {
		a.Country = other.Country
	}
	return a
}

// FullAddress returns the address on one line, skipping empty parts
func (a Address) FullAddress() string {
	parts := make([]string, 0, 4)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.State, a.Zip), " "))
	if cityLine != "" {
		parts = append(parts, cityLine)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}

// String implements fmt.Stringer
func (a Address) String() string {
	return a.FullAddress()
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
