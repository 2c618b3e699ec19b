package types

// ShippingAddress is the delivery address captured at checkout and copied
// verbatim onto the order. Stored as a jsonb column via the gorm json
// serializer.
type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}
