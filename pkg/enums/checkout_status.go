package enums

import "fmt"

// CheckoutStatus tracks the lifecycle of a checkout session.
// Each edge (created -> paid -> finalized) may be taken exactly once.
type CheckoutStatus string

const (
	CheckoutStatusCreated   CheckoutStatus = "created"
	CheckoutStatusPaid      CheckoutStatus = "paid"
	CheckoutStatusFinalized CheckoutStatus = "finalized"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusCreated,
	CheckoutStatusPaid,
	CheckoutStatusFinalized,
}

// String implements fmt.Stringer.
func (c CheckoutStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStatus.
func (c CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the forward edge to target is legal.
func (c CheckoutStatus) CanTransitionTo(target CheckoutStatus) bool {
	switch c {
	case CheckoutStatusCreated:
		return target == CheckoutStatusPaid
	case CheckoutStatusPaid:
		return target == CheckoutStatusFinalized
	default:
		return false
	}
}

// ParseCheckoutStatus converts raw input into a CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
